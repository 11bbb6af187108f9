// Package bootstrap orchestrates startup ordering for the persistence
// subsystem and kicks off best-effort snapshot persistence on suspend.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"memgarden/internal/anchor"
	"memgarden/internal/store"
)

// ErrCameraDenied means the user refused the camera permission. The app
// cannot run without it.
var ErrCameraDenied = errors.New("camera permission denied")

// Permissions is the platform permission dialog collaborator.
type Permissions interface {
	HasCamera() bool
	RequestCamera(ctx context.Context) (bool, error)
	HasMicrophone() bool
	RequestMicrophone(ctx context.Context) (bool, error)
}

// Sequencer drives startup and suspend for the persistence subsystem.
type Sequencer struct {
	perms    Permissions
	records  store.MemoryStore
	anchors  store.AnchorStore
	registry *anchor.Registry
	log      *zap.Logger
	ready    atomic.Bool
}

// NewSequencer wires the sequencer to everything it starts.
func NewSequencer(perms Permissions, records store.MemoryStore, anchors store.AnchorStore, registry *anchor.Registry, log *zap.Logger) *Sequencer {
	return &Sequencer{
		perms:    perms,
		records:  records,
		anchors:  anchors,
		registry: registry,
		log:      log,
	}
}

// Run executes the startup sequence: camera permission (hard stop on
// denial), microphone permission (warn only), concurrent store warm-up,
// then the one-shot relocalization attempt. On return with nil error the
// application is ready.
func (s *Sequencer) Run(ctx context.Context) error {
	if !s.perms.HasCamera() {
		granted, err := s.perms.RequestCamera(ctx)
		if err != nil {
			return fmt.Errorf("request camera permission: %w", err)
		}
		if !granted {
			return ErrCameraDenied
		}
	}

	if !s.perms.HasMicrophone() {
		granted, err := s.perms.RequestMicrophone(ctx)
		if err != nil || !granted {
			s.log.Warn("microphone permission unavailable, audio capture disabled",
				zap.Error(err))
		}
	}

	// Cold-load both collections so the first user action does not pay
	// for disk reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.records.GetAll(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.anchors.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warm stores: %w", err)
	}

	restored, err := s.registry.RestoreTrackingState(ctx)
	if err != nil {
		s.log.Warn("tracking restore attempt failed, continuing fresh", zap.Error(err))
	}
	if !restored {
		s.registry.StartSession()
	}

	s.ready.Store(true)
	s.log.Info("bootstrap complete", zap.Bool("relocalized", restored))
	return nil
}

// Ready reports whether Run completed successfully.
func (s *Sequencer) Ready() bool {
	return s.ready.Load()
}

// Suspend kicks off a best-effort tracking snapshot save without waiting
// for it. A quit racing the write is an accepted data-loss window, not a
// reason to block shutdown.
func (s *Sequencer) Suspend() {
	go func() {
		if err := s.registry.SaveTrackingState(context.Background()); err != nil {
			s.log.Warn("tracking snapshot save failed on suspend", zap.Error(err))
		}
	}()
}
