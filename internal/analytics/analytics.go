// Package analytics computes transaction aggregates over the repository's
// read path.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/mlozan/finrecord/internal/domain"
)

// TransactionSource supplies a user's transactions, bounded by limit.
type TransactionSource interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]domain.Transaction, error)
}

// Service aggregates a user's transaction activity.
type Service struct {
	source          TransactionSource
	maxTransactions int64
}

// NewService builds an analytics Service reading at most maxTransactions per
// report.
func NewService(source TransactionSource, maxTransactions int64) *Service {
	if maxTransactions <= 0 {
		maxTransactions = 1000
	}
	return &Service{source: source, maxTransactions: maxTransactions}
}

// Report computes the average transaction value, the most active UTC
// calendar day, and credit/debit totals for a user. It fails with
// domain.ErrNoData when the user has no transactions.
func (s *Service) Report(ctx context.Context, userID string) (domain.AnalyticsReport, error) {
	txs, err := s.source.ListByUser(ctx, userID, s.maxTransactions)
	if err != nil {
		return domain.AnalyticsReport{}, err
	}
	if len(txs) == 0 {
		return domain.AnalyticsReport{}, fmt.Errorf("user %s: %w", userID, domain.ErrNoData)
	}

	var sum, credit, debit float64
	dayCounts := make(map[time.Time]int)
	var bestDay time.Time
	bestCount := 0

	for _, tx := range txs {
		sum += tx.Amount
		switch tx.Type {
		case domain.TypeCredit:
			credit += tx.Amount
		case domain.TypeDebit:
			debit += tx.Amount
		}

		day := tx.Date.UTC().Truncate(24 * time.Hour)
		dayCounts[day]++
		// Strictly greater keeps the first day reaching the maximum count.
		if dayCounts[day] > bestCount {
			bestCount = dayCounts[day]
			bestDay = day
		}
	}

	return domain.AnalyticsReport{
		UserID:                  userID,
		AverageTransactionValue: sum / float64(len(txs)),
		MostActiveDay:           bestDay,
		MostActiveDayCount:      bestCount,
		TotalTransactions:       len(txs),
		TotalCredit:             credit,
		TotalDebit:              debit,
	}, nil
}
