package ledger

import (
	"fmt"
	"strings"

	"github.com/coinledger/bnc/internal/model"
	"github.com/coinledger/bnc/internal/timestamp"
)

// Kind classifies a ledger Error.
type Kind int

const (
	// KindMissingFee is a Quick or Spot trade without a priced fee.
	KindMissingFee Kind = iota + 1
	// KindIncompleteRecord is a record missing a field the fill pass
	// guarantees, such as an amount or USD value.
	KindIncompleteRecord
)

func (k Kind) String() string {
	switch k {
	case KindMissingFee:
		return "missing fee"
	case KindIncompleteRecord:
		return "incomplete record"
	default:
		return "unknown"
	}
}

// Error reports a record the classifier cannot apply. Both kinds abort a run.
type Error struct {
	Kind      Kind
	Line      int
	TimeMs    int64
	Asset     string
	Category  model.Category
	Operation string
	Role      model.Role
	Field     string // "asset", "amount" or "usd"
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("line %d: %s: %s %s", e.Line, e.Kind, e.Category, e.Operation)
	if e.Asset != "" {
		msg += " of " + e.Asset
	}
	if e.Kind == KindIncompleteRecord {
		msg += fmt.Sprintf(" has no %s %s", e.Role, e.Field)
	}
	return msg + " at " + timestamp.FormatMs(e.TimeMs)
}

// Violation is one failed end-of-run check.
type Violation struct {
	Name   string
	Detail string
}

// InvariantError lists every end-of-run check that failed. It means the run
// met rows it could not fully classify and its totals cannot be trusted.
type InvariantError struct {
	Violations []Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Name + ": " + v.Detail
	}
	return fmt.Sprintf("%d invariant violation(s): %s", len(e.Violations), strings.Join(parts, "; "))
}
