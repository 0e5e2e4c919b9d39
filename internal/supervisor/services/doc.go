// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
Package services provides suture.Service wrappers for Couchside components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve(ctx) error and implements fmt.Stringer so supervisor events name it.

HTTPServerService:
  - Runs ListenAndServe in a goroutine
  - Shuts the server down with its own timeout on cancellation

EventRouterService:
  - Builds a fresh watermill router per Serve call
  - Treats a router that stops without cancellation as a failure

EmbeddingBackfillService:
  - Rebuilds every stored item vector at startup and on an interval
  - Logs failed passes and retries on the next tick
*/
package services
