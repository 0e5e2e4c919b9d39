// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// EventRouter is the lifecycle of a message router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a router with its handlers registered.
type RouterFactory func() (EventRouter, error)

// EventRouterService runs the event router under supervision. A watermill
// router cannot be run again once closed, so every Serve builds a fresh one
// from the factory.
type EventRouterService struct {
	build  RouterFactory
	logger zerolog.Logger
}

// NewEventRouterService creates the router service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventRouterService(build RouterFactory, logger zerolog.Logger) *EventRouterService {
	return &EventRouterService{
		build:  build,
		logger: logger.With().Str("service", "event-router").Logger(),
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.build()
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	defer func() {
		if cerr := router.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("event router close failed")
		}
	}()

	s.logger.Info().Msg("event router starting")
	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("event router stopped unexpectedly")
	}
	return err
}

// String implements fmt.Stringer.
func (s *EventRouterService) String() string {
	return "event-router"
}
