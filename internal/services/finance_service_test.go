package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finsight/internal/core"
	"finsight/internal/events"
)

// memStore keeps state in memory, mirroring the load-with-defaults
// contract of the file-backed store.
type memStore struct {
	mu      sync.Mutex
	states  map[string]core.FinancialState
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]core.FinancialState)}
}

func (m *memStore) Load(userID string) core.FinancialState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[userID]; ok {
		return s.Clone()
	}
	return core.NewFinancialState()
}

func (m *memStore) Save(userID string, state core.FinancialState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[userID] = state.Clone()
	return nil
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []*events.StateChangedMessage
	err      error
}

func (p *capturePublisher) PublishStateChanged(_ context.Context, msg *events.StateChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func TestFinanceService_AddExpensePersistsAndPublishes(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	svc := NewFinanceService(store, pub, nil)
	ctx := context.Background()

	if err := svc.AddExpense(ctx, "u1", core.Expense{Category: "Food", Amount: 5000}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}

	snap := svc.Snapshot("u1")
	if len(snap.State.Expenses) != 1 || snap.TotalExpenses != 5000 {
		t.Fatalf("snapshot after add = %+v", snap)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.UserID != "u1" || msg.Kind != events.KindAdd || msg.Entity != events.EntityExpense {
		t.Fatalf("message = %+v", msg)
	}
}

func TestFinanceService_RejectedMutationDoesNotPersist(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	svc := NewFinanceService(store, pub, nil)
	ctx := context.Background()

	if err := svc.AddExpense(ctx, "u1", core.Expense{Category: "", Amount: 10}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("AddExpense() error = %v, want ErrEmptyCategory", err)
	}
	if store.saves != 0 {
		t.Fatalf("rejected mutation reached the store: %d saves", store.saves)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("rejected mutation published %d messages", len(pub.messages))
	}
}

func TestFinanceService_PublishFailureDoesNotFailMutation(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{err: errors.New("broker down")}
	svc := NewFinanceService(store, pub, nil)

	if err := svc.AddExpense(context.Background(), "u1", core.Expense{Category: "Food", Amount: 10}); err != nil {
		t.Fatalf("AddExpense() error = %v, want nil despite publish failure", err)
	}
	if got := len(svc.Snapshot("u1").State.Expenses); got != 1 {
		t.Fatalf("expenses length = %d, want 1", got)
	}
}

func TestFinanceService_SaveFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	svc := NewFinanceService(store, nil, nil)

	if err := svc.AddExpense(context.Background(), "u1", core.Expense{Category: "Food", Amount: 10}); err != nil {
		t.Fatalf("AddExpense() error = %v, want nil despite save failure", err)
	}
}

func TestFinanceService_DeleteSpliceAcrossCycles(t *testing.T) {
	store := newMemStore()
	svc := NewFinanceService(store, nil, nil)
	ctx := context.Background()

	for _, cat := range []string{"A", "B", "C"} {
		if err := svc.AddExpense(ctx, "u1", core.Expense{Category: cat, Amount: 1}); err != nil {
			t.Fatalf("AddExpense(%s) error = %v", cat, err)
		}
	}

	if err := svc.DeleteExpense(ctx, "u1", 1); err != nil {
		t.Fatalf("DeleteExpense(1) error = %v", err)
	}
	if err := svc.DeleteExpense(ctx, "u1", 0); err != nil {
		t.Fatalf("DeleteExpense(0) error = %v", err)
	}

	snap := svc.Snapshot("u1")
	if len(snap.State.Expenses) != 1 || snap.State.Expenses[0].Category != "C" {
		t.Fatalf("expenses after deletes = %+v, want [C]", snap.State.Expenses)
	}

	if err := svc.DeleteExpense(ctx, "u1", 5); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("DeleteExpense(5) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestFinanceService_UpdateProfileValidation(t *testing.T) {
	store := newMemStore()
	svc := NewFinanceService(store, nil, nil)
	ctx := context.Background()

	if err := svc.UpdateProfile(ctx, "u1", core.Profile{MonthlyIncome: 50000, CurrentSavings: 10000}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if err := svc.UpdateProfile(ctx, "u1", core.Profile{MonthlyIncome: -1}); !errors.Is(err, core.ErrNegativeValue) {
		t.Fatalf("UpdateProfile() error = %v, want ErrNegativeValue", err)
	}

	snap := svc.Snapshot("u1")
	if snap.State.Profile.MonthlyIncome != 50000 {
		t.Fatalf("rejected profile update persisted: %+v", snap.State.Profile)
	}
	if snap.RemainingBalance != 40000 {
		t.Fatalf("RemainingBalance = %v, want 40000", snap.RemainingBalance)
	}
}

func TestFinanceService_UsersIsolated(t *testing.T) {
	store := newMemStore()
	svc := NewFinanceService(store, nil, nil)
	ctx := context.Background()

	if err := svc.AddExpense(ctx, "alice", core.Expense{Category: "Food", Amount: 10}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if got := len(svc.Snapshot("bob").State.Expenses); got != 0 {
		t.Fatalf("bob sees %d of alice's expenses", got)
	}
}
