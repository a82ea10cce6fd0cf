package advisor

import (
	"strings"
	"testing"

	"finsight/internal/core"
	"finsight/internal/risk"
)

func TestBuildAdvisoryPrompt_FullState(t *testing.T) {
	state := core.NewFinancialState()
	state.Profile = core.Profile{MonthlyIncome: 50000, GoalAmount: 20000, CurrentSavings: 10000}
	state.Expenses = []core.Expense{
		{Category: "Food", Amount: 5000},
		{Category: "Rent", Amount: 20000},
	}
	state.Bills = []core.Bill{
		{Description: "Electricity", Amount: 120.5, DueDate: "2026-09-15"},
	}
	state.Goals = []core.Goal{
		{Description: "Emergency fund", TargetAmount: 10000, TargetDate: "2027-01-01"},
	}

	prompt := BuildAdvisoryPrompt(state)

	for _, want := range []string{
		"**Monthly Income:** ₹50000",
		"- Food: ₹5000",
		"- Rent: ₹20000",
		"- Electricity: ₹120.5 due on 2026-09-15",
		"Current Savings: ₹10000",
		"- Emergency fund - Target: ₹10000 by 2027-01-01",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	for _, absent := range []string{
		"No expenses available",
		"No upcoming bills",
		"No financial goals set",
		"No goals available",
	} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt contains placeholder %q despite data:\n%s", absent, prompt)
		}
	}
}

func TestBuildAdvisoryPrompt_EmptyState(t *testing.T) {
	prompt := BuildAdvisoryPrompt(core.NewFinancialState())

	for _, want := range []string{
		"No expenses available",
		"No upcoming bills",
		"No financial goals set",
		"No goals available",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing placeholder %q:\n%s", want, prompt)
		}
	}
}

func TestBuildAdvisoryPrompt_Deterministic(t *testing.T) {
	state := core.NewFinancialState()
	state.Expenses = []core.Expense{{Category: "Food", Amount: 42}}

	if BuildAdvisoryPrompt(state) != BuildAdvisoryPrompt(state) {
		t.Fatal("same state produced different prompts")
	}
}

func TestBuildFraudPrompt(t *testing.T) {
	txn := risk.Transaction{
		Amount:             25000,
		Location:           "Unusual Location",
		DeviceType:         "Unknown",
		Timestamp:          "2026-08-29T10:00:00Z",
		IPAddress:          "203.0.113.9",
		CardUsageFrequency: "High",
	}

	prompt := BuildFraudPrompt(txn)

	for _, want := range []string{
		"- Transaction amount: ₹25000",
		"- Transaction location: Unusual Location",
		"- Device type: Unknown",
		"- Transaction timestamp: 2026-08-29T10:00:00Z",
		"- IP Address: 203.0.113.9",
		"- Card usage frequency: High",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
