package model

import (
	"testing"
	"time"
)

func TestGenerateImportHash(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	h1 := GenerateImportHash("FIT123", "acct-1", date, -12.50)
	h2 := GenerateImportHash("FIT123", "acct-1", date, -12.50)
	if h1 != h2 {
		t.Errorf("hash not stable: %s != %s", h1, h2)
	}

	// Any component changing must change the hash.
	variants := []string{
		GenerateImportHash("FIT124", "acct-1", date, -12.50),
		GenerateImportHash("FIT123", "acct-2", date, -12.50),
		GenerateImportHash("FIT123", "acct-1", date.AddDate(0, 0, 1), -12.50),
		GenerateImportHash("FIT123", "acct-1", date, -12.51),
	}
	for i, v := range variants {
		if v == h1 {
			t.Errorf("variant %d produced identical hash", i)
		}
	}

	// Time-of-day must not affect the hash; only the calendar date does.
	noon := time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC)
	if got := GenerateImportHash("FIT123", "acct-1", noon, -12.50); got != h1 {
		t.Errorf("time of day changed hash: %s != %s", got, h1)
	}
}

func TestTotalsNet(t *testing.T) {
	tests := []struct {
		name   string
		totals Totals
		want   float64
	}{
		{name: "empty", totals: Totals{}, want: 0},
		{name: "income only", totals: Totals{Income: 500}, want: 500},
		{name: "expenses only", totals: Totals{Expenses: -120.5}, want: -120.5},
		{name: "mixed", totals: Totals{Income: 500, Expenses: -120.5}, want: 379.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.totals.Net(); got != tt.want {
				t.Errorf("Net() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrendAccessors(t *testing.T) {
	trend := Trend{Points: []TrendPoint{
		{Month: "2024-08", Total: 0},
		{Month: "2024-09", Total: -42.10},
		{Month: "2024-10", Total: 1200},
	}}

	labels := trend.Labels()
	if len(labels) != 3 || labels[0] != "2024-08" || labels[2] != "2024-10" {
		t.Errorf("unexpected labels: %v", labels)
	}

	data := trend.Data()
	if len(data) != 3 || data[1] != -42.10 {
		t.Errorf("unexpected data: %v", data)
	}
}
