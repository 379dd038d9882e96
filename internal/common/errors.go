package common

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindDatabase Kind = iota
	KindConnection
	KindTableNotFound
	KindQuery
	KindValidation
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection_failure"
	case KindTableNotFound:
		return "table_not_found"
	case KindQuery:
		return "query_failure"
	case KindValidation:
		return "validation_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "database_error"
	}
}

// Status is the HTTP status code a failure of this kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindConnection:
		return http.StatusServiceUnavailable
	case KindTableNotFound:
		return http.StatusNotFound
	case KindQuery, KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by the store, orders, mcp and chat
// packages. Details only feeds logs.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

func DatabaseError(msg string, err error) *Error {
	m := msg
	if err != nil {
		m = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{Kind: KindDatabase, Message: m, Err: err}
}

func TableNotFound(table string) *Error {
	return &Error{
		Kind:    KindTableNotFound,
		Message: fmt.Sprintf("La tabla '%s' no existe", table),
		Details: map[string]any{"table_name": table},
	}
}

func QueryFailed(query string, err error) *Error {
	return &Error{
		Kind:    KindQuery,
		Message: fmt.Sprintf("Error al ejecutar la consulta: %v", err),
		Details: map[string]any{"query": query, "error": err.Error()},
		Err:     err,
	}
}

func ConnectionFailed(err error) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: fmt.Sprintf("Error de conexión a la base de datos: %v", err),
		Details: map[string]any{"error": err.Error()},
		Err:     err,
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Timeout(op string, err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s: tiempo de espera agotado", op),
		Err:     err,
	}
}

// AsError reports whether err carries a *Error anywhere in its chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == k
}

// StatusOf maps any error to an HTTP status; unknown errors are 500.
func StatusOf(err error) int {
	if e, ok := AsError(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}
