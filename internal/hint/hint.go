// Package hint turns a failure into a short deterministic study hint.
// Pure keyword matching; no calls out of process, so it is always
// available even when the AI tutor is not.
package hint

import (
	"strings"

	"github.com/codeclass/engine/api"
)

type keywordHint struct {
	// empty language matches any
	language api.Language
	keyword  string
	hint     string
}

// Ordered: first match wins, so the more specific entries come first.
var table = []keywordHint{
	{api.LangJava, "cannot find symbol", "Check for typos in variable and method names; Java identifiers are case-sensitive."},
	{api.LangJava, "';' expected", "A semicolon is missing near the reported line."},
	{api.LangJava, "reached end of file while parsing", "A closing brace '}' is missing somewhere above."},
	{api.LangJava, "incompatible types", "The value's type does not match the variable's declared type."},
	{api.LangJava, "NullPointerException", "A variable was used before it was given a value. Initialize it first."},
	{api.LangJava, "ArrayIndexOutOfBoundsException", "An array index went past the last element; valid indexes run from 0 to length-1."},
	{api.LangJava, "InputMismatchException", "The input read did not match the expected type; check your Scanner calls."},

	{api.LangPython, "IndentationError", "Python uses indentation to group code; make sure each block is indented consistently."},
	{api.LangPython, "NameError", "A name was used before it was defined. Check spelling and definition order."},
	{api.LangPython, "IndexError", "A list index went past the last element; valid indexes run from 0 to len-1."},
	{api.LangPython, "KeyError", "The dictionary does not contain that key; check it with 'in' first."},
	{api.LangPython, "TypeError", "A value of the wrong type was used; convert it with int(), str() or float()."},
	{api.LangPython, "ZeroDivisionError", "The code divides by zero; guard the divisor before dividing."},
	{api.LangPython, "SyntaxError", "Python could not parse the code; look at the line reported just above."},

	{api.LangJavaScript, "is not defined", "A variable was used before being declared; declare it with let or const."},
	{api.LangJavaScript, "is not a function", "The value being called is not a function; check the name and what it holds."},
	{api.LangJavaScript, "Cannot read properties of undefined", "An object is undefined at access time; make sure it is assigned first."},
	{api.LangJavaScript, "Unexpected token", "There is a syntax error near the reported token; check brackets and commas."},

	{api.LangCpp, "expected ';'", "A semicolon is missing near the reported line."},
	{api.LangCpp, "was not declared in this scope", "The name is used before declaration; declare it or include the right header."},
	{api.LangCpp, "Segmentation fault", "The program accessed memory it does not own; check pointers and array bounds."},
	{api.LangCpp, "undefined reference to `main'", "The program needs a main() function as its entry point."},

	// language-independent fallbacks
	{"", "division by zero", "The code divides by zero; guard the divisor before dividing."},
	{"", "out of range", "An index or iterator went outside its valid range."},
	{"", "stack overflow", "Likely unbounded recursion; make sure every recursive call moves toward a base case."},
}

const (
	noHintsNeeded = "No hints needed, the program ran successfully."

	timeoutHint  = "The program ran too long. Look for loops that may never finish, or an input read that never arrives."
	memoryHint   = "The program used too much memory. Look for collections that grow without bound."
	securityHint = "The program uses an operation that is not allowed here, such as starting processes, touching files, or opening network connections."
	systemHint   = "Something went wrong on our side, not in your code. Please try again."
)

// Generate produces the hint for a classified result. Deterministic for
// a given (status, errText, lang) triple.
func Generate(status api.ExecutionStatus, errText string, lang api.Language) string {
	switch status {
	case api.StatusSuccess:
		return noHintsNeeded
	case api.StatusTimeout:
		return timeoutHint
	case api.StatusMemoryLimit:
		return memoryHint
	case api.StatusSecurityViolation:
		return securityHint
	case api.StatusSystemError:
		return systemHint
	}

	for _, kh := range table {
		if kh.language != "" && kh.language != lang {
			continue
		}
		if strings.Contains(errText, kh.keyword) {
			return kh.hint
		}
	}

	if status == api.StatusCompilationError {
		return "The code did not compile. Read the first compiler message; later ones are often caused by it."
	}
	return "The program stopped with an error. Read the message above and check the last thing the code did."
}
