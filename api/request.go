package api

// Language identifies one of the supported submission languages.
type Language string

const (
	LangJava       Language = "JAVA"
	LangPython     Language = "PYTHON"
	LangJavaScript Language = "JAVASCRIPT"
	LangCpp        Language = "CPP"
)

// Request size and timing bounds enforced before anything else runs.
const (
	MaxCodeLength  = 10000
	MaxStdinLength = 1000

	DefaultTimeoutSeconds = 10
)

// ExecRequest is a single code execution request. It is never persisted.
type ExecRequest struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`

	Stdin          string `json:"stdin,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}
