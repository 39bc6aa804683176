package assets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"imageoptimize/logger"
)

// Hook is implemented by field types that take part in asset saves.
// BeforeElementSave runs before the record is persisted and may change it;
// an error aborts the save. AfterElementSave runs once the record has an id.
type Hook interface {
	BeforeElementSave(ctx context.Context, a *Asset, isNew bool) error
	AfterElementSave(ctx context.Context, a *Asset, isNew bool) error
}

// Service saves assets through the registered hooks
type Service struct {
	mu    sync.RWMutex
	hooks []Hook
	now   func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// AddHook registers h for every following save
func (s *Service) AddHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *Service) snapshot() []Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Hook(nil), s.hooks...)
}

// Save persists a, assigning an id when it is new
func (s *Service) Save(ctx context.Context, a *Asset) error {
	isNew := a.IsNew()
	hooks := s.snapshot()

	for _, h := range hooks {
		if err := h.BeforeElementSave(ctx, a, isNew); err != nil {
			return fmt.Errorf("before save of %q: %w", a.Filename, err)
		}
	}

	now := s.now().UTC()
	if isNew {
		a.ID = uuid.NewString()
		a.DateCreated = now
	}
	a.DateUpdated = now

	if err := Put(a); err != nil {
		if isNew {
			a.ID = ""
		}
		return fmt.Errorf("failed to persist asset: %w", err)
	}
	logger.Debugf("Saved asset %s (%s, new=%t)", a.ID, a.Filename, isNew)

	for _, h := range hooks {
		if err := h.AfterElementSave(ctx, a, isNew); err != nil {
			return fmt.Errorf("after save of %s: %w", a.ID, err)
		}
	}
	return nil
}
