// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/couchside/internal/metrics"
	"github.com/tomtom215/couchside/internal/rationale"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

// DataSource provides the data a ranking request reads. It is typically
// implemented by the database package.
type DataSource interface {
	// Catalog returns every item with its offers.
	Catalog(ctx context.Context) ([]Item, error)

	// Ratings returns all rating events of the given people.
	Ratings(ctx context.Context, personIDs []string) ([]RatingEvent, error)

	// LatestPreferences returns the latest preference profile per person.
	// People without one are absent from the map.
	LatestPreferences(ctx context.Context, personIDs []string) (map[string]PreferenceProfile, error)

	// RecentHistory returns up to limit recent external watches, newest first.
	RecentHistory(ctx context.Context, personIDs []string, limit int) ([]HistoryEntry, error)
}

var errNoDataSource = errors.New("load snapshot: no data source configured")

// Snapshot is everything one ranking request reads, fully materialized.
type Snapshot struct {
	Items       []Item
	Ratings     map[string][]RatingEvent
	Preferences map[string]PreferenceProfile
	History     []HistoryEntry

	// ItemVectors holds a vector per item ID.
	ItemVectors map[string]embedding.Vector

	// PersonVector is the first person's vector; nil without usable ratings.
	PersonVector embedding.Vector

	// Neighbors is the nearest-neighbor walk order, empty when vector
	// search is not enabled.
	Neighbors []string

	// Now is the reference time for availability staleness.
	Now time.Time
}

// Engine ranks and explains slates. It is safe for concurrent use.
type Engine struct {
	config    *Config
	source    DataSource
	query     embedding.SimilarityQuery
	rationale *rationale.Builder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates an engine. A nil cfg uses DefaultConfig; a nil query
// computes all vectors on demand.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source DataSource, query embedding.SimilarityQuery, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if query == nil {
		query = embedding.Ephemeral{}
	}
	return &Engine{
		config:    cfg,
		source:    source,
		query:     query,
		rationale: rationale.NewBuilder(cfg.RationaleMaxChars),
		logger:    logger.With().Str("component", "recommend").Logger(),
		now:       time.Now,
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// SetClock replaces the clock used for availability staleness.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Rank loads a snapshot for req and ranks it.
func (e *Engine) Rank(ctx context.Context, req Request) (*Slate, error) {
	req, err := e.normalize(req)
	if err != nil {
		return nil, err
	}
	if len(req.People) == 0 {
		return &Slate{Intent: req.Intent, Items: []RankedItem{}}, nil
	}
	snap, err := e.Load(ctx, req.People)
	if err != nil {
		return nil, err
	}
	return e.rank(snap, req), nil
}

// RankSnapshot ranks an already materialized snapshot.
func (e *Engine) RankSnapshot(snap *Snapshot, req Request) (*Slate, error) {
	req, err := e.normalize(req)
	if err != nil {
		return nil, err
	}
	if len(req.People) == 0 {
		return &Slate{Intent: req.Intent, Items: []RankedItem{}}, nil
	}
	return e.rank(snap, req), nil
}

func (e *Engine) normalize(req Request) (Request, error) {
	intent, err := ParseIntent(string(req.Intent))
	if err != nil {
		return req, err
	}
	req.Intent = intent
	if req.Count <= 0 {
		req.Count = e.config.DefaultCount
	}
	if req.Count > e.config.MaxCount {
		req.Count = e.config.MaxCount
	}
	return req, nil
}

// Load materializes a snapshot for people.
func (e *Engine) Load(ctx context.Context, people []Person) (*Snapshot, error) {
	if e.source == nil {
		return nil, errNoDataSource
	}
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}

	items, err := e.source.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	ratings, err := e.source.Ratings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	prefs, err := e.source.LatestPreferences(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	history, err := e.source.RecentHistory(ctx, ids, e.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	snap := &Snapshot{
		Items:       items,
		Ratings:     GroupRatings(ratings),
		Preferences: prefs,
		History:     history,
		ItemVectors: make(map[string]embedding.Vector, len(items)),
		Now:         e.now(),
	}
	for i := range items {
		snap.ItemVectors[items[i].ID] = e.query.ItemVector(ctx, ItemFeatures(&items[i]))
	}
	if len(people) > 0 {
		first := people[0].ID
		weights := PersonWeights(snap.Ratings[first], items)
		snap.PersonVector = e.query.PersonVector(ctx, first, weights)
		snap.Neighbors = e.neighbors(ctx, first, weights, snap)
	}
	return snap, nil
}

// neighbors returns the nearest item IDs to the person vector when the
// vector store is large enough and holds the person's current vector.
func (e *Engine) neighbors(ctx context.Context, personID string, weights []embedding.Weighted, snap *Snapshot) []string {
	counter, ok := e.query.(embedding.ItemCounter)
	if !ok || snap.PersonVector == nil {
		return nil
	}
	if counter.StoredItemCount(ctx) < e.config.VectorSearchMinItems || !counter.HasPersonVector(ctx, personID, weights) {
		return nil
	}
	type near struct {
		id  string
		sim float64
	}
	all := make([]near, 0, len(snap.ItemVectors))
	for id, v := range snap.ItemVectors {
		all = append(all, near{id: id, sim: embedding.Similarity(snap.PersonVector, v)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].sim != all[j].sim {
			return all[i].sim > all[j].sim
		}
		return all[i].id < all[j].id
	})
	if len(all) > e.config.NeighborLimit {
		all = all[:e.config.NeighborLimit]
	}
	out := make([]string, len(all))
	for i, n := range all {
		out[i] = n.id
	}
	return out
}

// GroupRatings groups ratings by person, oldest first.
func GroupRatings(ratings []RatingEvent) map[string][]RatingEvent {
	out := make(map[string][]RatingEvent)
	for _, r := range ratings {
		out[r.PersonID] = append(out[r.PersonID], r)
	}
	for id, rs := range out {
		out[id] = oldestFirst(rs)
	}
	return out
}

// ItemFeatures returns the embedding features of an item.
func ItemFeatures(item *Item) embedding.Features {
	return embedding.Features{
		ID:            item.ID,
		Genres:        item.Metadata.Genres,
		Creators:      item.Metadata.Creators,
		EpisodeLength: item.Metadata.EpisodeLength,
		Region:        item.Metadata.Region,
	}
}

// PersonWeights turns a person's latest rating per item into weighted
// token groups for the person embedding. Unknown items are skipped.
func PersonWeights(ratings []RatingEvent, items []Item) []embedding.Weighted {
	byID := make(map[string]*Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	latest := latestRatings(oldestFirst(ratings))
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []embedding.Weighted
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, embedding.Weighted{
			Tokens: ItemFeatures(item).Tokens(),
			Weight: latest[id].Verdict.EmbeddingWeight(),
		})
	}
	return out
}

// ranker holds the state of one ranking call.
type ranker struct {
	cfg       *Config
	req       Request
	snap      *Snapshot
	items     map[string]*Item
	gs        *groupSignals
	rationale *rationale.Builder
	logger    zerolog.Logger
	now       time.Time
}

func (e *Engine) rank(snap *Snapshot, req Request) *Slate {
	start := time.Now()
	now := snap.Now
	if now.IsZero() {
		now = e.now()
	}
	items := make(map[string]*Item, len(snap.Items))
	for i := range snap.Items {
		items[snap.Items[i].ID] = &snap.Items[i]
	}
	r := &ranker{
		cfg:       e.config,
		req:       req,
		snap:      snap,
		items:     items,
		gs:        aggregateSignals(req.People, snap, items),
		rationale: e.rationale,
		logger:    e.logger,
		now:       now,
	}

	pool := filterCandidates(&e.config.Scoring, walkOrder(snap.Items, snap.Neighbors), req.Intent, r.gs)
	scored := r.scoreCandidates(pool.Safe)
	split := e.config.Allocation.splitPools(req.Intent, scored)

	var picked []*ScoredCandidate
	var family *FamilyMeta
	if len(req.People) > 1 {
		picked, family = r.selectFamily(req.Count, scored)
	} else {
		picked = e.config.Allocation.allocate(req.Intent, req.Count, split)
	}
	picked = pad(req.Intent, req.Count, picked, split)
	picked = r.substitute(req.Count, picked, pool.Safe, pool.Violators)

	out, fallbacks := r.explain(picked)
	subs := 0
	for _, sc := range picked {
		if sc.Substitute {
			subs++
		}
	}
	metrics.RecsSpoilerFallbacks.Add(float64(fallbacks))
	metrics.RecsSubstitutions.Add(float64(subs))

	e.logger.Debug().
		Str("intent", string(req.Intent)).
		Int("people", len(req.People)).
		Int("catalog", len(snap.Items)).
		Int("safe", len(pool.Safe)).
		Int("violators", len(pool.Violators)).
		Int("returned", len(out)).
		Int("substitutes", subs).
		Bool("neighbor_order", len(snap.Neighbors) > 0).
		Dur("took", time.Since(start)).
		Msg("slate ranked")

	return &Slate{Intent: req.Intent, Items: out, Family: family}
}

// scoreCandidates scores every safe candidate with the aggregate signals,
// applies feedback and the anchor bias.
func (r *ranker) scoreCandidates(safe []*Item) []*ScoredCandidate {
	gs := r.gs
	anchor := r.items[r.req.AnchorID]
	var anchorVec embedding.Vector
	if anchor != nil {
		anchorVec = r.snap.ItemVectors[anchor.ID]
	}

	out := make([]*ScoredCandidate, 0, len(safe))
	for _, item := range safe {
		in := scoreInput{
			LikedGenres:   gs.LikedGenres,
			LikedCreators: gs.LikedCreators,
			Preference:    gs.Preference,
		}
		itemVec := r.snap.ItemVectors[item.ID]
		if r.snap.PersonVector != nil && len(itemVec) > 0 {
			in.VecSim = embedding.Similarity(r.snap.PersonVector, itemVec)
			in.HasVecSim = true
		}
		res := r.cfg.Scoring.score(item, r.req.Intent, in)

		var priors []Verdict
		for _, ps := range gs.People {
			if v, ok := ps.Priors[item.ID]; ok {
				priors = append(priors, v)
			}
		}
		score, factors := r.cfg.Feedback.apply(item, res.Score, feedbackInput{
			Tags:            gs.Tags,
			Notes:           gs.Notes,
			Priors:          priors,
			HistoryGenres:   gs.HistoryGenres,
			HistoryCreators: gs.HistoryCreators,
			Seed:            r.req.Seed,
		})

		reasons := res.Reasons
		if anchor != nil && anchor.ID != item.ID {
			factors.Anchor = r.cfg.Anchor.bonus(&r.cfg.Scoring, anchor, item, anchorVec, itemVec)
			score += factors.Anchor
			reasons = r.cfg.Anchor.withReason(anchor.Title, reasons)
		}

		out = append(out, &ScoredCandidate{
			Item:      item,
			Score:     score,
			Novelty:   res.Novelty,
			VecSim:    in.VecSim,
			HasVecSim: in.HasVecSim,
			Reasons:   reasons,
			Factors:   factors,
		})
	}
	return out
}
