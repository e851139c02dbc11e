package api

// ExecutionStatus is the single classified outcome of a request.
type ExecutionStatus string

const (
	StatusSuccess           ExecutionStatus = "SUCCESS"
	StatusCompilationError  ExecutionStatus = "COMPILATION_ERROR"
	StatusRuntimeError      ExecutionStatus = "RUNTIME_ERROR"
	StatusTimeout           ExecutionStatus = "TIMEOUT"
	StatusMemoryLimit       ExecutionStatus = "MEMORY_LIMIT_EXCEEDED"
	StatusSecurityViolation ExecutionStatus = "SECURITY_VIOLATION"
	StatusSystemError       ExecutionStatus = "SYSTEM_ERROR"
)

// ExecResponse is the engine's answer to one ExecRequest.
//
// Exactly one of Output, Error, CompilationError is non-empty, and which
// one is determined by Status: Output for SUCCESS, CompilationError for
// COMPILATION_ERROR, Error for everything else.
type ExecResponse struct {
	Success bool            `json:"success"`
	Status  ExecutionStatus `json:"status"`

	Output           string `json:"output,omitempty"`
	Error            string `json:"error,omitempty"`
	CompilationError string `json:"compilationError,omitempty"`

	Hint string `json:"hint,omitempty"`

	// Zero when the sandbox never started (validation or pre-scan reject).
	ExecutionTimeMs int64 `json:"executionTimeMs"`
	MemoryUsageMB   int64 `json:"memoryUsageMB"`

	ExecutedAt string `json:"executedAt"`
	Language   string `json:"language"`
}

// HealthResponse is the operational probe result.
type HealthResponse struct {
	Status                  string `json:"status"`
	SandboxRuntimeAvailable bool   `json:"sandboxRuntimeAvailable"`
}

const (
	HealthOk       = "healthy"
	HealthDegraded = "degraded"
)
