package domain

import "time"

// AnalyticsReport summarizes a user's transaction activity.
type AnalyticsReport struct {
	UserID                  string
	AverageTransactionValue float64
	// MostActiveDay is the UTC calendar day with the most transactions.
	// Ties resolve to the first day reaching the maximum count in the
	// input's iteration order.
	MostActiveDay      time.Time
	MostActiveDayCount int
	TotalTransactions  int
	TotalCredit        float64
	TotalDebit         float64
}
