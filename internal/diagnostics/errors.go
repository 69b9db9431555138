// Package diagnostics defines the coded errors reported by the build
// pipeline. Each error locates its cause by function and instruction index.
package diagnostics

import "fmt"

// ErrorCode identifies a class of diagnostic
type ErrorCode string

const (
	// Program loading and front-end contract
	ErrL001 ErrorCode = "L001" // program file could not be loaded
	ErrL002 ErrorCode = "L002" // instruction stream failed validation

	// Generated code verification
	ErrB001 ErrorCode = "B001" // block without terminator
	ErrB002 ErrorCode = "B002" // jump to a block that does not exist
	ErrB003 ErrorCode = "B003" // suspend point in a function that may not suspend
	ErrB004 ErrorCode = "B004" // string scopes unbalanced at function end
	ErrB005 ErrorCode = "B005" // variable cache left dirty at function end
	ErrB006 ErrorCode = "B006" // calls a procedure that failed to build

	// Execution
	ErrR001 ErrorCode = "R001"
)

// Location points at an instruction of a script or procedure. Instr is -1
// when the error concerns the whole function.
type Location struct {
	Function string
	Instr    int
}

// NoLocation is used for errors that belong to no function
var NoLocation = Location{Instr: -1}

// DiagnosticError is a coded, located error
type DiagnosticError struct {
	Code     ErrorCode
	File     string
	Location Location
	Message  string
}

// NewError creates a diagnostic
func NewError(code ErrorCode, loc Location, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Location: loc, Message: msg}
}

// Errorf creates a diagnostic with a formatted message
func Errorf(code ErrorCode, loc Location, format string, args ...interface{}) *DiagnosticError {
	return NewError(code, loc, fmt.Sprintf(format, args...))
}

func (e *DiagnosticError) Error() string {
	prefix := ""
	if e.File != "" {
		prefix = e.File + ": "
	}
	switch {
	case e.Location.Function == "":
		return fmt.Sprintf("%serror [%s]: %s", prefix, e.Code, e.Message)
	case e.Location.Instr < 0:
		return fmt.Sprintf("%s%s: error [%s]: %s", prefix, e.Location.Function, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s%s[%d]: error [%s]: %s", prefix, e.Location.Function, e.Location.Instr, e.Code, e.Message)
	}
}
