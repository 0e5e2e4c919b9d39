// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
Package supervisor provides process supervision for Couchside using suture v4.

	RootSupervisor ("couchside")
	├── DataSupervisor ("data-layer")
	│   └── EmbeddingBackfillService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently. Supervisor events (start, stop,
panic, backoff) are logged through sutureslog into the zerolog-backed slog
handler from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewEmbeddingBackfillService(catalog, stored, backfillCfg, logger))
	tree.AddMessagingService(services.NewEventRouterService(buildRouter, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}
*/
package supervisor
