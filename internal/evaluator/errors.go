package evaluator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the top-level category of an evaluation failure.
type ErrorKind string

const (
	// KindInput covers missing parameters, empty sequences and absent
	// files or columns.
	KindInput ErrorKind = "InputError"

	// KindNumeric covers out-of-domain operations and non-finite results.
	KindNumeric ErrorKind = "NumericError"

	// KindConsistency covers failed invariants: values that must agree
	// but don't, flatness bounds exceeded, document patterns violated.
	KindConsistency ErrorKind = "ConsistencyError"
)

// ErrorCode identifies the specific failure inside a kind.
type ErrorCode string

const (
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	ErrCodeUnknownParameter ErrorCode = "UNKNOWN_PARAMETER"
	ErrCodeUnknownFormula   ErrorCode = "UNKNOWN_FORMULA"
	ErrCodeEmptySequence    ErrorCode = "EMPTY_SEQUENCE"
	ErrCodeMissingColumn    ErrorCode = "MISSING_COLUMN"
	ErrCodeMissingFile      ErrorCode = "MISSING_FILE"
	ErrCodeMalformedInput   ErrorCode = "MALFORMED_INPUT"

	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"
	ErrCodeDomain         ErrorCode = "DOMAIN"
	ErrCodeNonFinite      ErrorCode = "NON_FINITE"

	ErrCodeMismatch      ErrorCode = "MISMATCH"
	ErrCodeNotFlat       ErrorCode = "NOT_FLAT"
	ErrCodeForbiddenText ErrorCode = "FORBIDDEN_TEXT"
	ErrCodeRequiredText  ErrorCode = "REQUIRED_TEXT"
)

// Error is the single structured error type returned by this module.
//
// Location fields are optional; Error() renders whichever are set so the
// message names the formula, parameter, table cell or document involved.
type Error struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string

	Formula string
	Param   string

	// Row is 1-based and counts the header line as row 1.
	Row    int
	Column string

	File string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var loc []string
	if e.Formula != "" {
		loc = append(loc, "formula="+e.Formula)
	}
	if e.Param != "" {
		loc = append(loc, "param="+e.Param)
	}
	if e.File != "" {
		loc = append(loc, "file="+e.File)
	}
	if e.Row > 0 {
		loc = append(loc, fmt.Sprintf("row=%d", e.Row))
	}
	if e.Column != "" {
		loc = append(loc, "column="+e.Column)
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %s (%s)", e.Kind, e.Code, e.Message, strings.Join(loc, ", "))
}

// IsInputError reports whether err (or anything it wraps) is an InputError.
func IsInputError(err error) bool { return isKind(err, KindInput) }

// IsNumericError reports whether err (or anything it wraps) is a NumericError.
func IsNumericError(err error) bool { return isKind(err, KindNumeric) }

// IsConsistencyError reports whether err (or anything it wraps) is a ConsistencyError.
func IsConsistencyError(err error) bool { return isKind(err, KindConsistency) }

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewInputError creates an InputError.
func NewInputError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Kind: KindInput, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewNumericError creates a NumericError.
func NewNumericError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Kind: KindNumeric, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewConsistencyError creates a ConsistencyError.
func NewConsistencyError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Kind: KindConsistency, Code: code, Message: fmt.Sprintf(format, args...)}
}

// MissingParameter is the error returned when a formula's parameter is absent.
func MissingParameter(formula, param string) *Error {
	e := NewInputError(ErrCodeMissingParameter, "required parameter %q not supplied", param)
	e.Formula = formula
	e.Param = param
	return e
}

// MissingCell is the error returned when a table row lacks a required value.
func MissingCell(row int, column string) *Error {
	e := NewInputError(ErrCodeMissingColumn, "row %d has no value for column %q", row, column)
	e.Row = row
	e.Column = column
	return e
}

// withFormula stamps the formula name on err if it is an *Error without one.
func withFormula(err error, formula string) error {
	var e *Error
	if errors.As(err, &e) && e.Formula == "" {
		e.Formula = formula
	}
	return err
}
