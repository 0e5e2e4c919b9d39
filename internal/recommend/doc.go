// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

/*
Package recommend ranks catalog items for one person or a group sharing a
screen and explains each pick.

# Pipeline

A ranking request runs in two phases. Engine.Rank first materializes a
Snapshot from a DataSource and an embedding.SimilarityQuery: the catalog,
ratings, latest preferences, recent external watch history and all vectors
the request needs. RankSnapshot then ranks that snapshot without any I/O:

 1. Signals: per-person liked genres and creators, nuance tags, notes and
    rating priors; the union boundary map, the effective age limit and an
    aggregate preference.
 2. Filter: walks the catalog in a fixed order and splits it into safe
    candidates and boundary violators.
 3. Score: taste overlap, vector similarity, intent bonus, preference
    adjustments and an availability bonus; novelty from familiarity.
 4. Feedback: rating priors, liked tags, note keywords and history
    adjacency applied multiplicatively, plus a seeded micro-jitter.
 5. Anchor: an optional "more like this" bias.
 6. Allocate: comfort/discovery split per intent (single person) or the
    Pareto family selector (two or more people), then padding.
 7. Substitute: boundary-safe near-equivalents for the top violators.
 8. Explain: rationale, evidence, label, confidence and availability.

# Determinism

Every sort breaks ties by item ID and the jitter is a hash of (item ID,
seed), so identical inputs produce byte-identical slates. Nothing in the
ranking phase reads the clock except availability staleness, which uses
Snapshot.Now.

# Thread Safety

Engine is safe for concurrent use. Each call works on its own Snapshot.
*/
package recommend
