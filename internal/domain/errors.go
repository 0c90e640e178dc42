package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// ValidationError detalla qué campo de la petición es inválido.
// errors.Is(err, ErrInvalidInput) == true; nunca se reintenta.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación [%s]: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un error de validación para un campo.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ReferenceError indica que una referencia (organización, ubicación, producto,
// proveedor) no existe o no pertenece a la organización del contexto.
// errors.Is(err, ErrNotFound) == true; nunca se reintenta.
type ReferenceError struct {
	Kind string // organization, location, product, supplier, order
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("referencia %s %q no encontrada", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error { return ErrNotFound }

// NewReferenceError construye un error de referencia.
func NewReferenceError(kind, id string) *ReferenceError {
	return &ReferenceError{Kind: kind, ID: id}
}

// ConflictError indica una carrera de escritura concurrente sobre la misma
// clave (organización, ubicación, producto). El caller puede reintentar con
// backoff acotado; agotados los intentos se devuelve tal cual.
type ConflictError struct {
	Operation string
	Key       string
	Cause     error
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conflicto en %s [%s]: %v", e.Operation, e.Key, e.Cause)
	}
	return fmt.Sprintf("conflicto en %s [%s]", e.Operation, e.Key)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError construye un error de conflicto concurrente.
func NewConflictError(operation, key string, cause error) *ConflictError {
	return &ConflictError{Operation: operation, Key: key, Cause: cause}
}

// IsRetryable indica si el error amerita reintento local (solo conflictos).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
