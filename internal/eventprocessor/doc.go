// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

// Package eventprocessor carries write-side events to the components that
// derive state from them, using Watermill with an in-process gochannel pub/sub.
//
// # Topics
//
//   - rating.written: a person appended a rating
//   - preference.written: a person's onboarding profile or boundaries changed
//
// # Flow
//
//	API write ──► Publisher ──► gochannel ──► Router
//	                                            ├─ cache-invalidate-ratings      (rating.written)
//	                                            ├─ cache-invalidate-preferences  (preference.written)
//	                                            └─ embedding-rebuild             (rating.written)
//
// The API invalidates the household inline before acknowledging a write;
// the cache handlers drop its slates again for publishers that do not. The embedding
// handler recomputes the person's stored vector from their latest ratings,
// throttled by a token bucket so a burst of ratings cannot saturate the
// vector store.
//
// # Error Handling
//
// Handlers return a RetryableError for failures that may succeed later; the
// router's Retry middleware re-delivers those. Malformed payloads are
// PermanentErrors: they are logged, counted and acknowledged.
//
// # Example
//
//	pubSub := eventprocessor.NewPubSub(cfg.Events, logger)
//	router, err := eventprocessor.NewRouter(eventprocessor.RouterConfigFrom(cfg.Events), logger)
//	...
//	if err := eventprocessor.RegisterHandlers(router, pubSub, handlers); err != nil { ... }
//	go router.Run(ctx)
//	<-router.Running()
//	publisher, _ := eventprocessor.NewPublisher(pubSub)
//	err = publisher.Publish(ctx, eventprocessor.NewRatingWritten("h1", "p1", "i1"))
package eventprocessor
