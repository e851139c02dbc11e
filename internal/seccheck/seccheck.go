// Package seccheck is the pattern-based security pre-scan. It is a
// best-effort deny-list, not a sound analyzer; the sandbox remains the
// actual isolation boundary. A match rejects the request before any
// sandbox is provisioned.
package seccheck

import (
	"regexp"

	"github.com/codeclass/engine/api"
)

// Severity grades a matched rule.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// Finding is one matched deny-list rule.
type Finding struct {
	Pattern     string
	Severity    Severity
	Description string
}

type rule struct {
	re          *regexp.Regexp
	severity    Severity
	description string
}

// Scanner holds the compiled per-language rule sets.
type Scanner struct {
	rules map[api.Language][]rule
}

func mustRule(expr string, sev Severity, desc string) rule {
	return rule{re: regexp.MustCompile(expr), severity: sev, description: desc}
}

// NewScanner compiles the deny-list once. The rule set targets process
// spawning, filesystem access outside the scratch area, network sockets,
// reflection/dynamic loading and system property tampering.
func NewScanner() *Scanner {
	return &Scanner{rules: map[api.Language][]rule{
		api.LangJava: {
			mustRule(`Runtime\s*\.\s*getRuntime`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`\bProcessBuilder\b`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`java\.lang\.reflect`, SeverityHigh, "reflection is not allowed"),
			mustRule(`Class\s*\.\s*forName`, SeverityHigh, "dynamic class loading is not allowed"),
			mustRule(`\bClassLoader\b`, SeverityHigh, "dynamic class loading is not allowed"),
			mustRule(`sun\.misc\.Unsafe`, SeverityHigh, "unsafe memory access is not allowed"),
			mustRule(`System\s*\.\s*setProperty`, SeverityMedium, "changing system properties is not allowed"),
			mustRule(`java\.net\.(Socket|ServerSocket|URL|HttpURLConnection)`, SeverityHigh, "network access is not allowed"),
			mustRule(`java\.nio\.file`, SeverityMedium, "filesystem access is not allowed"),
			mustRule(`new\s+File(Reader|Writer|InputStream|OutputStream)?\s*\(`, SeverityMedium, "filesystem access is not allowed"),
		},
		api.LangPython: {
			mustRule(`(^|\n)\s*(import\s+os\b|from\s+os\b)`, SeverityHigh, "the os module is not allowed"),
			mustRule(`\bsubprocess\b`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`(^|\n)\s*(import\s+socket\b|from\s+socket\b)`, SeverityHigh, "network access is not allowed"),
			mustRule(`__import__\s*\(`, SeverityHigh, "dynamic imports are not allowed"),
			mustRule(`\bimportlib\b`, SeverityHigh, "dynamic imports are not allowed"),
			mustRule(`\beval\s*\(`, SeverityMedium, "eval is not allowed"),
			mustRule(`\bexec\s*\(`, SeverityMedium, "exec is not allowed"),
			mustRule(`\bopen\s*\(`, SeverityMedium, "file access is not allowed"),
			mustRule(`\bctypes\b`, SeverityHigh, "native code loading is not allowed"),
			mustRule(`(^|\n)\s*(import\s+shutil\b|from\s+shutil\b)`, SeverityMedium, "filesystem access is not allowed"),
		},
		api.LangJavaScript: {
			mustRule(`require\s*\(\s*['"](child_process|fs|net|http|https|os|dns|cluster)['"]`, SeverityHigh, "restricted node module"),
			mustRule(`import\s*\(\s*['"](child_process|fs|net|http|https|os|dns|cluster)['"]`, SeverityHigh, "restricted node module"),
			mustRule(`from\s+['"](child_process|fs|net|http|https|os)['"]`, SeverityHigh, "restricted node module"),
			mustRule(`process\s*\.\s*(binding|dlopen|kill|env)`, SeverityHigh, "process internals are not allowed"),
			mustRule(`\beval\s*\(`, SeverityMedium, "eval is not allowed"),
			mustRule(`new\s+Function\s*\(`, SeverityMedium, "dynamic code generation is not allowed"),
		},
		api.LangCpp: {
			mustRule(`\bsystem\s*\(`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`\bpopen\s*\(`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`\bexec[lv]p?e?\s*\(`, SeverityHigh, "spawning OS processes is not allowed"),
			mustRule(`\bfork\s*\(`, SeverityHigh, "forking is not allowed"),
			mustRule(`<sys/socket\.h>`, SeverityHigh, "network access is not allowed"),
			mustRule(`\b(fopen|freopen|remove|rename)\s*\(\s*"/`, SeverityMedium, "absolute path access is not allowed"),
			mustRule(`"(/etc/|/proc/|/sys/|/dev/)`, SeverityHigh, "system path access is not allowed"),
			mustRule(`\basm\b|__asm__`, SeverityHigh, "inline assembly is not allowed"),
		},
	}}
}

// Scan returns the first matched finding, or nil when the code passes.
func (s *Scanner) Scan(lang api.Language, code string) *Finding {
	for _, r := range s.rules[lang] {
		if r.re.MatchString(code) {
			return &Finding{
				Pattern:     r.re.String(),
				Severity:    r.severity,
				Description: r.description,
			}
		}
	}
	return nil
}
