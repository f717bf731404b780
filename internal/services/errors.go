package services

import (
	"fmt"

	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/validation"
)

// Typed failures the handlers translate into HTTP statuses. Services wrap
// these with context via %w so errors.Is keeps working up the stack.
var (
	// ErrNotFound: a referenced customer, document, catalog entry or line
	// item does not exist.
	ErrNotFound = fmt.Errorf("registro não encontrado")

	// ErrInvalidState: the operation is not legal for the document's
	// current status (e.g. converting a non-approved quote).
	ErrInvalidState = fmt.Errorf("estado inválido para a operação")

	// ErrConflict: a sequence number collision survived the retry loop.
	// Only reachable under a transaction-discipline bug.
	ErrConflict = fmt.Errorf("conflito de numeração")

	// ErrForbidden: a customer principal touched another customer's document.
	ErrForbidden = fmt.Errorf("acesso negado")
)

// ValidationError carries per-field violations for malformed input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dados inválidos: %v", map[string]string(e.Violations))
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Violations: validation.Violations{field: reason}}
}

// ensureOwnedBy rejects portal reads of documents the customer does not own.
func ensureOwnedBy(doc models.Owned, customerID uint, label string) error {
	if doc.GetCustomerID() != customerID {
		return fmt.Errorf("%s: %w", label, ErrForbidden)
	}
	return nil
}
