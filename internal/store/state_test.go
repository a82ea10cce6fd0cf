package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"finsight/internal/core"
)

func testState() core.FinancialState {
	state := core.NewFinancialState()
	state.Expenses = []core.Expense{
		{Category: "Food", Amount: 5000},
		{Category: "Rent", Amount: 20000},
	}
	state.Bills = []core.Bill{
		{Description: "Electricity", Amount: 120, DueDate: "2026-09-15"},
	}
	state.Goals = []core.Goal{
		{Description: "Emergency fund", TargetAmount: 10000, TargetDate: "2027-01-01"},
	}
	state.Profile = core.Profile{MonthlyIncome: 50000, GoalAmount: 20000, CurrentSavings: 10000}
	return state
}

func TestStateStore_RoundTrip(t *testing.T) {
	ss := NewStateStore(t.TempDir(), nil)
	want := testState()

	if err := ss.Save("user1", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := ss.Load("user1")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestStateStore_LoadMissingUserYieldsDefaults(t *testing.T) {
	ss := NewStateStore(t.TempDir(), nil)

	got := ss.Load("nobody")
	want := core.NewFinancialState()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %+v, want default state %+v", got, want)
	}
	if got.Expenses == nil || got.Bills == nil || got.Goals == nil {
		t.Fatal("default state has nil collections")
	}
}

func TestStateStore_LoadCorruptKeyFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	ss := NewStateStore(root, nil)

	if err := ss.Save("user1", testState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Corrupt one key; the rest must still hydrate.
	corrupt := filepath.Join(root, "user1", "monthlyExpenses.json")
	if err := os.WriteFile(corrupt, []byte("][ nonsense"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got := ss.Load("user1")
	if len(got.Expenses) != 0 {
		t.Fatalf("corrupt expenses key: got %d expenses, want 0", len(got.Expenses))
	}
	if len(got.Bills) != 1 || got.Profile.MonthlyIncome != 50000 {
		t.Fatalf("unrelated keys lost: %+v", got)
	}
}

func TestStateStore_UsersAreIsolated(t *testing.T) {
	ss := NewStateStore(t.TempDir(), nil)

	if err := ss.Save("alice", testState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := ss.Load("bob")
	if len(got.Expenses) != 0 {
		t.Fatalf("bob sees alice's expenses: %+v", got.Expenses)
	}
}

func TestStateStore_SaveClampsNegativeAmounts(t *testing.T) {
	ss := NewStateStore(t.TempDir(), nil)

	state := testState()
	state.Expenses[0].Amount = -50
	state.Profile.CurrentSavings = -1

	if err := ss.Save("user1", state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := ss.Load("user1")
	if got.Expenses[0].Amount != 0 {
		t.Fatalf("negative amount persisted: %v", got.Expenses[0].Amount)
	}
	if got.Profile.CurrentSavings != 0 {
		t.Fatalf("negative savings persisted: %v", got.Profile.CurrentSavings)
	}
}
