package model

// Totals holds the ledger-wide income and expense sums. Income is the
// sum of all positive amounts, Expenses the sum of all negative ones
// (so Expenses is zero or negative). Amounts of exactly zero contribute
// to neither.
type Totals struct {
	Income   float64
	Expenses float64
}

// Net returns the algebraic sum of income and expenses.
func (t Totals) Net() float64 {
	return t.Income + t.Expenses
}

// TrendPoint is one month of the trailing trend: a YYYY-MM label and
// the net sum of all transaction amounts in that calendar month.
type TrendPoint struct {
	Month string
	Total float64
}

// Trend is the six-month trailing trend in chronological order, ending
// with the current month.
type Trend struct {
	Points []TrendPoint
}

// Labels returns the month labels in chronological order.
func (t Trend) Labels() []string {
	labels := make([]string, len(t.Points))
	for i, p := range t.Points {
		labels[i] = p.Month
	}
	return labels
}

// Data returns the month totals in chronological order.
func (t Trend) Data() []float64 {
	data := make([]float64, len(t.Points))
	for i, p := range t.Points {
		data[i] = p.Total
	}
	return data
}
