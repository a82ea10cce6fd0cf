package core

// Derived figures are pure functions of FinancialState, recomputed on
// every read. Nothing here is persisted.

// ExpenseSeries pairs category labels with their amounts, preserving
// insertion order for display.
type ExpenseSeries struct {
	Labels []string
	Values []float64
}

// TotalExpenses sums all recorded expense amounts.
func TotalExpenses(s FinancialState) float64 {
	var total float64
	for _, e := range s.Expenses {
		total += e.Amount
	}
	return total
}

// RemainingBalance is income minus savings minus total expenses. A
// negative result is meaningful (overspending), not an error.
func RemainingBalance(s FinancialState) float64 {
	return s.Profile.MonthlyIncome - s.Profile.CurrentSavings - TotalExpenses(s)
}

// SavingsProgressSeries returns the two-slice proportion display:
// [currentSavings, remaining-to-goal]. The second component never goes
// negative, and a zero goal yields [0, 0] rather than a malformed chart.
func SavingsProgressSeries(s FinancialState) [2]float64 {
	if s.Profile.GoalAmount == 0 {
		return [2]float64{0, 0}
	}
	remaining := s.Profile.GoalAmount - s.Profile.CurrentSavings
	if remaining < 0 {
		remaining = 0
	}
	return [2]float64{s.Profile.CurrentSavings, remaining}
}

// ExpensesByCategory returns the chart series for recorded expenses.
func ExpensesByCategory(s FinancialState) ExpenseSeries {
	series := ExpenseSeries{
		Labels: make([]string, 0, len(s.Expenses)),
		Values: make([]float64, 0, len(s.Expenses)),
	}
	for _, e := range s.Expenses {
		series.Labels = append(series.Labels, e.Category)
		series.Values = append(series.Values, e.Amount)
	}
	return series
}
