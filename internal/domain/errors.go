package domain

import "errors"

// Sentinel errors classified at the HTTP boundary. Store-level failures that
// match none of these are treated as persistence errors and surface as
// internal server errors.
var (
	// ErrNotFound indicates no record matched the requested identifier.
	ErrNotFound = errors.New("record not found")

	// ErrNoFieldsToUpdate indicates a partial update carried no fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrNoData indicates an analytics input set was empty.
	ErrNoData = errors.New("no transactions to aggregate")

	// ErrInvalidTransactionType indicates a value outside credit|debit.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)
