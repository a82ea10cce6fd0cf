package store

import (
	"fmt"
	"path/filepath"

	"finsight/internal/core"
	"finsight/internal/log"
)

// Persisted state layout: one JSON file per key inside the user's
// directory.
const (
	keyMonthlyExpenses = "monthlyExpenses"
	keyUpcomingBills   = "upcomingBills"
	keyGoals           = "goals"
	keyFinancialGoals  = "financialGoals"
	keyMonthlyIncome   = "monthlyIncome"
)

// financialGoals is the on-disk shape of the savings pair.
type financialGoals struct {
	GoalAmount     float64 `json:"goalAmount"`
	CurrentSavings float64 `json:"currentSavings"`
}

// StateStore hydrates and flushes a whole FinancialState, scoping each
// user to their own directory under root.
type StateStore struct {
	root   string
	logger *log.Logger
}

// NewStateStore creates a state store rooted at root.
func NewStateStore(root string, logger *log.Logger) *StateStore {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &StateStore{
		root:   root,
		logger: logger.WithComponent(log.ComponentStore),
	}
}

func (ss *StateStore) userStore(userID string) *Store {
	return New(filepath.Join(ss.root, userID), ss.logger)
}

// Load hydrates the user's FinancialState. Absent or malformed keys fall
// back to their documented defaults, never an error.
func (ss *StateStore) Load(userID string) core.FinancialState {
	kv := ss.userStore(userID)
	state := core.NewFinancialState()

	var expenses []core.Expense
	if kv.Load(keyMonthlyExpenses, &expenses) && expenses != nil {
		state.Expenses = expenses
	}

	var bills []core.Bill
	if kv.Load(keyUpcomingBills, &bills) && bills != nil {
		state.Bills = bills
	}

	var goals []core.Goal
	if kv.Load(keyGoals, &goals) && goals != nil {
		state.Goals = goals
	}

	var fg financialGoals
	if kv.Load(keyFinancialGoals, &fg) {
		state.Profile.GoalAmount = fg.GoalAmount
		state.Profile.CurrentSavings = fg.CurrentSavings
	}

	var income float64
	if kv.Load(keyMonthlyIncome, &income) {
		state.Profile.MonthlyIncome = income
	}

	return sanitize(state)
}

// Save flushes the whole state back to the per-key files. Monetary
// fields are clamped non-negative before the write so a bad value can
// never reach disk.
func (ss *StateStore) Save(userID string, state core.FinancialState) error {
	kv := ss.userStore(userID)
	state = sanitize(state)

	if err := kv.Save(keyMonthlyExpenses, state.Expenses); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	if err := kv.Save(keyUpcomingBills, state.Bills); err != nil {
		return fmt.Errorf("save bills: %w", err)
	}
	if err := kv.Save(keyGoals, state.Goals); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	fg := financialGoals{
		GoalAmount:     state.Profile.GoalAmount,
		CurrentSavings: state.Profile.CurrentSavings,
	}
	if err := kv.Save(keyFinancialGoals, fg); err != nil {
		return fmt.Errorf("save financial goals: %w", err)
	}
	if err := kv.Save(keyMonthlyIncome, state.Profile.MonthlyIncome); err != nil {
		return fmt.Errorf("save monthly income: %w", err)
	}
	return nil
}

// sanitize clamps monetary fields to zero and replaces nil collections,
// keeping the non-negative invariant at the persistence boundary.
func sanitize(state core.FinancialState) core.FinancialState {
	out := state.Clone()

	for i := range out.Expenses {
		out.Expenses[i].Amount = clamp(out.Expenses[i].Amount)
	}
	for i := range out.Bills {
		out.Bills[i].Amount = clamp(out.Bills[i].Amount)
	}
	for i := range out.Goals {
		out.Goals[i].TargetAmount = clamp(out.Goals[i].TargetAmount)
	}
	out.Profile.MonthlyIncome = clamp(out.Profile.MonthlyIncome)
	out.Profile.GoalAmount = clamp(out.Profile.GoalAmount)
	out.Profile.CurrentSavings = clamp(out.Profile.CurrentSavings)

	if out.Expenses == nil {
		out.Expenses = []core.Expense{}
	}
	if out.Bills == nil {
		out.Bills = []core.Bill{}
	}
	if out.Goals == nil {
		out.Goals = []core.Goal{}
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
