// Package errors provides severity-aware error types for the RFP engines.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// EngineError is a structured error with context. Recoverable errors mark
// data-quality gaps the pipeline degrades around; non-recoverable errors
// mark configuration faults or caller contract violations.
type EngineError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	LineID      string   `json:"line_id,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *EngineError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("[%s] %s: %s (line: %s)", e.Severity, e.Code, e.Message, e.LineID)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeDataSourceNotFound = "DATA_SOURCE_NOT_FOUND"
	ErrCodeDataSourceInvalid  = "DATA_SOURCE_INVALID"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeSKUNotPriced       = "SKU_NOT_PRICED"
	ErrCodeNoCandidate        = "NO_CANDIDATE"
	ErrCodeRFPNotFound        = "RFP_NOT_FOUND"
)

// NewDataSourceNotFoundError creates a fatal error for missing reference data.
func NewDataSourceNotFoundError(name, path string) *EngineError {
	return &EngineError{
		Code:        ErrCodeDataSourceNotFound,
		Message:     fmt.Sprintf("%s not found at %s", name, path),
		Severity:    SeverityFatal,
		Recoverable: false,
	}
}

// NewDataSourceInvalidError creates a fatal error for unreadable reference data.
func NewDataSourceInvalidError(name string, cause error) *EngineError {
	return &EngineError{
		Code:        ErrCodeDataSourceInvalid,
		Message:     fmt.Sprintf("%s could not be parsed: %v", name, cause),
		Severity:    SeverityFatal,
		Recoverable: false,
	}
}

// NewInvalidInputError creates an error for caller contract violations.
func NewInvalidInputError(message string) *EngineError {
	return &EngineError{
		Code:        ErrCodeInvalidInput,
		Message:     message,
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// NewRFPNotFoundError creates an error for an unknown RFP id.
func NewRFPNotFoundError(rfpID string) *EngineError {
	return &EngineError{
		Code:        ErrCodeRFPNotFound,
		Message:     fmt.Sprintf("RFP %s not found in index", rfpID),
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// IsFatal reports whether err is a non-recoverable configuration error.
func IsFatal(err error) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Severity == SeverityFatal
	}
	return false
}
