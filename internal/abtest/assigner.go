package abtest

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"
)

var ErrInvalidGroup = errors.New("invalid A/B group")

// GroupStore persists sticky assignments. Implemented by the Redis wrapper.
type GroupStore interface {
	AssignGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) (models.ABGroup, bool, error)
	SetGroup(ctx context.Context, userID string, group models.ABGroup, ttl time.Duration) error
}

// HashGroup is the deterministic cohort for a user id.
func HashGroup(userID string) models.ABGroup {
	if userID == "" {
		return models.GroupControl
	}
	h := fnv.New32a()
	h.Write([]byte(userID))
	return models.ABGroups[h.Sum32()%uint32(len(models.ABGroups))]
}

type Assigner struct {
	store GroupStore
	ttl   time.Duration
	log   *logger.Logger
}

// NewAssigner accepts a nil store, in which case assignment is purely
// hash based.
func NewAssigner(store GroupStore, ttl time.Duration, log *logger.Logger) *Assigner {
	return &Assigner{store: store, ttl: ttl, log: log}
}

// Assign never fails: store errors fall back to the hash cohort.
func (a *Assigner) Assign(ctx context.Context, userID string) models.ABAssignment {
	group := HashGroup(userID)
	if userID == "" || a.store == nil {
		return models.ABAssignment{UserID: userID, Group: group}
	}

	stored, _, err := a.store.AssignGroup(ctx, userID, group, a.ttl)
	if err != nil {
		a.log.Warn("ABTEST", fmt.Sprintf("Sticky assignment unavailable for %s, using hash cohort: %v", userID, err))
		return models.ABAssignment{UserID: userID, Group: group}
	}
	if !stored.Valid() {
		a.log.Warn("ABTEST", fmt.Sprintf("Stored group %q for %s is invalid, using hash cohort", stored, userID))
		return models.ABAssignment{UserID: userID, Group: group}
	}
	return models.ABAssignment{UserID: userID, Group: stored, Sticky: true}
}

func (a *Assigner) Override(ctx context.Context, userID string, group models.ABGroup) error {
	if !group.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	if userID == "" {
		return errors.New("user id is required")
	}
	if a.store == nil {
		return errors.New("no assignment store configured")
	}
	if err := a.store.SetGroup(ctx, userID, group, a.ttl); err != nil {
		return fmt.Errorf("failed to store group override: %w", err)
	}
	a.log.Info("ABTEST", fmt.Sprintf("User %s moved to group %s", userID, group))
	return nil
}
