package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType enumerates the allowed transaction kinds.
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// ParseTransactionType validates an external transaction type value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeCredit:
		return TypeCredit, nil
	case TypeDebit:
		return TypeDebit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

// Transaction is the wire-side representation of a transaction record.
// FullName is a point-in-time copy of the owning user's name captured when
// the transaction was created; it does not track later user updates.
type Transaction struct {
	ID       string
	UserID   string
	FullName string
	Date     time.Time
	Amount   float64
	Type     TransactionType
}

// TransactionUpdate carries the optional fields of a partial update.
type TransactionUpdate struct {
	Amount *float64
	Type   *TransactionType
}

// Empty reports whether the update carries no fields.
func (u TransactionUpdate) Empty() bool {
	return u.Amount == nil && u.Type == nil
}
