package abtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) AssignGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) (models.ABGroup, bool, error) {
	args := m.Called(userID, group, ttl)
	return args.Get(0).(models.ABGroup), args.Bool(1), args.Error(2)
}

func (m *MockGroupStore) SetGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) error {
	args := m.Called(userID, group, ttl)
	return args.Error(0)
}

func quiet() *logger.Logger { return logger.New(logger.LevelFatal, io.Discard) }

func TestHashGroupIsDeterministicAndBalanced(t *testing.T) {
	assert.Equal(t, models.GroupControl, HashGroup(""))
	assert.Equal(t, HashGroup("guest-42"), HashGroup("guest-42"))

	counts := map[models.ABGroup]int{}
	for i := 0; i < 3000; i++ {
		counts[HashGroup(fmt.Sprintf("user-%d", i))]++
	}
	require.Len(t, counts, 3)
	for g, c := range counts {
		assert.InDelta(t, 1000, c, 150, "group %s", g)
	}
}

func TestAssignUsesStoredGroup(t *testing.T) {
	store := new(MockGroupStore)
	store.On("AssignGroup", "u1", HashGroup("u1"), time.Hour).Return(models.GroupPriceOptimized, false, nil)

	a := NewAssigner(store, time.Hour, quiet())
	got := a.Assign(context.Background(), "u1")

	assert.Equal(t, models.GroupPriceOptimized, got.Group)
	assert.True(t, got.Sticky)
	store.AssertExpectations(t)
}

func TestAssignFallsBackToHash(t *testing.T) {
	store := new(MockGroupStore)
	store.On("AssignGroup", "u2", mock.Anything, mock.Anything).Return(models.ABGroup(""), false, errors.New("connection refused"))
	store.On("AssignGroup", "u3", mock.Anything, mock.Anything).Return(models.ABGroup("bogus"), false, nil)

	a := NewAssigner(store, time.Hour, quiet())

	got := a.Assign(context.Background(), "u2")
	assert.Equal(t, HashGroup("u2"), got.Group)
	assert.False(t, got.Sticky)

	got = a.Assign(context.Background(), "u3")
	assert.Equal(t, HashGroup("u3"), got.Group)

	// Anonymous users never touch the store.
	got = a.Assign(context.Background(), "")
	assert.Equal(t, models.GroupControl, got.Group)
	store.AssertNumberOfCalls(t, "AssignGroup", 2)
}

func TestAssignWithoutStore(t *testing.T) {
	a := NewAssigner(nil, time.Hour, quiet())
	got := a.Assign(context.Background(), "u4")
	assert.Equal(t, HashGroup("u4"), got.Group)
	assert.False(t, got.Sticky)
}

func TestOverride(t *testing.T) {
	store := new(MockGroupStore)
	store.On("SetGroup", "u5", models.GroupControl, time.Hour).Return(nil)

	a := NewAssigner(store, time.Hour, quiet())

	require.NoError(t, a.Override(context.Background(), "u5", models.GroupControl))
	assert.ErrorIs(t, a.Override(context.Background(), "u5", "treatment"), ErrInvalidGroup)
	assert.Error(t, a.Override(context.Background(), "", models.GroupControl))
	store.AssertExpectations(t)
}
