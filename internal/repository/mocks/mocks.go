// Package mocks provides testify mocks for the persistence and dispatch
// ports used in service tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mwestre/cadence/internal/domain/activity"
	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/notify"
)

// HabitRepository is a mock for habit.Repository.
type HabitRepository struct {
	mock.Mock
}

func (m *HabitRepository) Get(ctx context.Context, uid, id string) (*habit.Habit, error) {
	args := m.Called(ctx, uid, id)
	if h, ok := args.Get(0).(*habit.Habit); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HabitRepository) Upsert(ctx context.Context, uid string, h *habit.Habit) error {
	args := m.Called(ctx, uid, h)
	return args.Error(0)
}

func (m *HabitRepository) ListActive(ctx context.Context, uid string) ([]*habit.Habit, error) {
	args := m.Called(ctx, uid)
	if list, ok := args.Get(0).([]*habit.Habit); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HabitRepository) Delete(ctx context.Context, uid, id string) error {
	args := m.Called(ctx, uid, id)
	return args.Error(0)
}

func (m *HabitRepository) FindPendingSync(ctx context.Context, uid string) ([]*habit.Habit, error) {
	args := m.Called(ctx, uid)
	if list, ok := args.Get(0).([]*habit.Habit); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HabitRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	args := m.Called(ctx, uid, id, at)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Get(ctx context.Context, uid, id string) (*activity.Activity, error) {
	args := m.Called(ctx, uid, id)
	if a, ok := args.Get(0).(*activity.Activity); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Upsert(ctx context.Context, uid string, a *activity.Activity) error {
	args := m.Called(ctx, uid, a)
	return args.Error(0)
}

func (m *ActivityRepository) InsertIgnore(ctx context.Context, uid string, acts []*activity.Activity) error {
	args := m.Called(ctx, uid, acts)
	return args.Error(0)
}

func (m *ActivityRepository) ListByDate(ctx context.Context, uid string, date time.Time) ([]*activity.Activity, error) {
	args := m.Called(ctx, uid, date)
	if list, ok := args.Get(0).([]*activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) CountByHabitAndDate(ctx context.Context, uid, habitID string, date time.Time) (int, error) {
	args := m.Called(ctx, uid, habitID, date)
	return args.Int(0), args.Error(1)
}

func (m *ActivityRepository) DeleteByHabit(ctx context.Context, uid, habitID string) error {
	args := m.Called(ctx, uid, habitID)
	return args.Error(0)
}

func (m *ActivityRepository) FindPendingSync(ctx context.Context, uid string) ([]*activity.Activity, error) {
	args := m.Called(ctx, uid)
	if list, ok := args.Get(0).([]*activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	args := m.Called(ctx, uid, id, at)
	return args.Error(0)
}

// Dispatcher is a mock for notify.Dispatcher.
type Dispatcher struct {
	mock.Mock
}

func (m *Dispatcher) Schedule(habitID, slotKey string, firesAt time.Time, payload notify.Payload) error {
	args := m.Called(habitID, slotKey, firesAt, payload)
	return args.Error(0)
}

func (m *Dispatcher) Cancel(habitID string) {
	m.Called(habitID)
}

func (m *Dispatcher) CancelSlot(habitID, slotKey string) {
	m.Called(habitID, slotKey)
}

// NotificationPlanner is a mock for habit.NotificationPlanner.
type NotificationPlanner struct {
	mock.Mock
}

func (m *NotificationPlanner) Replan(ctx context.Context, h *habit.Habit) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}
