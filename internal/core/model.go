package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Expense is a single recorded monthly expense.
	Expense struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// Bill is an upcoming payment with a due date.
	Bill struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		DueDate     string  `json:"dueDate"` // YYYY-MM-DD
	}

	// Goal is a savings target with a deadline.
	Goal struct {
		Description  string  `json:"description"`
		TargetAmount float64 `json:"targetAmount"`
		TargetDate   string  `json:"targetDate"` // YYYY-MM-DD
	}

	// Profile holds the income/savings pair and the overall savings goal.
	Profile struct {
		MonthlyIncome  float64 `json:"monthlyIncome"`
		GoalAmount     float64 `json:"goalAmount"`
		CurrentSavings float64 `json:"currentSavings"`
	}

	// FinancialState is the aggregate root owned by a single user session.
	// It is an explicit value handed through constructors, never ambient
	// package state, so every writer is visible.
	FinancialState struct {
		Expenses []Expense `json:"expenses"`
		Bills    []Bill    `json:"bills"`
		Goals    []Goal    `json:"goals"`
		Profile  Profile   `json:"profile"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNegativeValue    = errors.New("negative value")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

const dateLayout = "2006-01-02"

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Category)) == 0 {
		return ErrEmptyCategory
	}
	if len(e.Category) > 200 {
		return errors.New("category too long (max 200 characters)")
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(b.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if b.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !validDate(b.DueDate) {
		return ErrInvalidDate
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(g.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if !validDate(g.TargetDate) {
		return ErrInvalidDate
	}
	return nil
}

// Validate rejects negative profile fields outright instead of coercing
// them to zero, so a bad form submission surfaces as an error.
func (p Profile) Validate() error {
	if p.MonthlyIncome < 0 || p.GoalAmount < 0 || p.CurrentSavings < 0 {
		return ErrNegativeValue
	}
	return nil
}

// NewFinancialState returns the documented default state: empty
// collections and a zeroed profile.
func NewFinancialState() FinancialState {
	return FinancialState{
		Expenses: []Expense{},
		Bills:    []Bill{},
		Goals:    []Goal{},
	}
}

// AddExpense validates and appends. A rejected expense leaves the state
// untouched.
func (s *FinancialState) AddExpense(e Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.Expenses = append(s.Expenses, e)
	return nil
}

// DeleteExpense removes the entry at index with splice semantics:
// subsequent entries shift down by one.
func (s *FinancialState) DeleteExpense(index int) error {
	if index < 0 || index >= len(s.Expenses) {
		return ErrIndexOutOfRange
	}
	s.Expenses = append(s.Expenses[:index], s.Expenses[index+1:]...)
	return nil
}

// AddBill validates and appends. A rejected bill leaves the state
// untouched.
func (s *FinancialState) AddBill(b Bill) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.Bills = append(s.Bills, b)
	return nil
}

// DeleteBill removes the entry at index with splice semantics.
func (s *FinancialState) DeleteBill(index int) error {
	if index < 0 || index >= len(s.Bills) {
		return ErrIndexOutOfRange
	}
	s.Bills = append(s.Bills[:index], s.Bills[index+1:]...)
	return nil
}

// AddGoal validates and appends. A rejected goal leaves the state
// untouched.
func (s *FinancialState) AddGoal(g Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.Goals = append(s.Goals, g)
	return nil
}

// DeleteGoal removes the entry at index with splice semantics.
func (s *FinancialState) DeleteGoal(index int) error {
	if index < 0 || index >= len(s.Goals) {
		return ErrIndexOutOfRange
	}
	s.Goals = append(s.Goals[:index], s.Goals[index+1:]...)
	return nil
}

// SetProfile validates and replaces the profile. A rejected profile
// leaves the prior one in place.
func (s *FinancialState) SetProfile(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Profile = p
	return nil
}

// Clone returns a deep copy so callers can hand out state without
// sharing backing arrays.
func (s FinancialState) Clone() FinancialState {
	out := FinancialState{
		Expenses: make([]Expense, len(s.Expenses)),
		Bills:    make([]Bill, len(s.Bills)),
		Goals:    make([]Goal, len(s.Goals)),
		Profile:  s.Profile,
	}
	copy(out.Expenses, s.Expenses)
	copy(out.Bills, s.Bills)
	copy(out.Goals, s.Goals)
	return out
}
