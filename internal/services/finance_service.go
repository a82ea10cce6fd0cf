// Package services orchestrates financial-state mutations: load, apply,
// persist, then publish an audit event. Persistence and publishing are
// best-effort; only validation failures reach the caller.
package services

import (
	"context"
	"sync"

	"finsight/internal/core"
	"finsight/internal/events"
	"finsight/internal/log"
)

// StateStore hydrates and flushes per-user financial state.
type StateStore interface {
	Load(userID string) core.FinancialState
	Save(userID string, state core.FinancialState) error
}

// EventPublisher publishes audit messages for successful mutations.
type EventPublisher interface {
	PublishStateChanged(ctx context.Context, msg *events.StateChangedMessage) error
}

// Snapshot bundles the state with its derived figures for display.
type Snapshot struct {
	State            core.FinancialState
	TotalExpenses    float64
	RemainingBalance float64
	SavingsSeries    [2]float64
	ExpenseSeries    core.ExpenseSeries
}

// FinanceService owns the mutate-derive-persist cycle. A per-user mutex
// guarantees each cycle completes before the next one for that user
// starts.
type FinanceService struct {
	store     StateStore
	publisher EventPublisher // nil disables the audit trail
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFinanceService wires the state store and optional event publisher.
func NewFinanceService(store StateStore, publisher EventPublisher, logger *log.Logger) *FinanceService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &FinanceService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentFinance),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *FinanceService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Snapshot loads the user's state and recomputes every derived figure.
func (s *FinanceService) Snapshot(userID string) Snapshot {
	state := s.store.Load(userID)
	return Snapshot{
		State:            state,
		TotalExpenses:    core.TotalExpenses(state),
		RemainingBalance: core.RemainingBalance(state),
		SavingsSeries:    core.SavingsProgressSeries(state),
		ExpenseSeries:    core.ExpensesByCategory(state),
	}
}

// mutate runs one locked load-apply-persist cycle. The apply function
// returns the audit message for the mutation, or an error to reject it
// leaving the stored state untouched.
func (s *FinanceService) mutate(ctx context.Context, userID string, apply func(*core.FinancialState) (*events.StateChangedMessage, error)) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := s.store.Load(userID)
	msg, err := apply(&state)
	if err != nil {
		return err
	}

	// Persistence is fire-and-forget from the caller's perspective.
	if err := s.store.Save(userID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist state",
			log.FieldUserID, userID, log.FieldError, err.Error())
	}

	s.publish(ctx, msg)
	return nil
}

func (s *FinanceService) publish(ctx context.Context, msg *events.StateChangedMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStateChanged(ctx, msg); err != nil {
		// The mutation already succeeded; never fail the request here.
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			log.FieldUserID, msg.UserID,
			log.FieldOperation, msg.Kind,
			log.FieldError, err.Error())
	}
}

// AddExpense validates and appends an expense.
func (s *FinanceService) AddExpense(ctx context.Context, userID string, e core.Expense) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.AddExpense(e); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindAdd, events.EntityExpense, -1), nil
	})
}

// DeleteExpense removes the expense at index.
func (s *FinanceService) DeleteExpense(ctx context.Context, userID string, index int) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.DeleteExpense(index); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindDelete, events.EntityExpense, index), nil
	})
}

// AddBill validates and appends a bill.
func (s *FinanceService) AddBill(ctx context.Context, userID string, b core.Bill) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.AddBill(b); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindAdd, events.EntityBill, -1), nil
	})
}

// DeleteBill removes the bill at index.
func (s *FinanceService) DeleteBill(ctx context.Context, userID string, index int) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.DeleteBill(index); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindDelete, events.EntityBill, index), nil
	})
}

// AddGoal validates and appends a goal.
func (s *FinanceService) AddGoal(ctx context.Context, userID string, g core.Goal) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.AddGoal(g); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindAdd, events.EntityGoal, -1), nil
	})
}

// DeleteGoal removes the goal at index.
func (s *FinanceService) DeleteGoal(ctx context.Context, userID string, index int) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.DeleteGoal(index); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindDelete, events.EntityGoal, index), nil
	})
}

// UpdateProfile validates and replaces the income/savings profile.
func (s *FinanceService) UpdateProfile(ctx context.Context, userID string, p core.Profile) error {
	return s.mutate(ctx, userID, func(state *core.FinancialState) (*events.StateChangedMessage, error) {
		if err := state.SetProfile(p); err != nil {
			return nil, err
		}
		return events.NewStateChangedMessage(userID, events.KindProfileUpdate, events.EntityProfile, -1), nil
	})
}
