// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/couchside/internal/cache"
	"github.com/tomtom215/couchside/internal/database"
	"github.com/tomtom215/couchside/internal/eventprocessor"
	"github.com/tomtom215/couchside/internal/recommend"
)

// fakeStore is an in-memory Store and HealthChecker.
type fakeStore struct {
	mu          sync.Mutex
	people      map[string]*recommend.Person
	ratings     []*recommend.RatingEvent
	preferences []*recommend.PreferenceProfile
	history     []recommend.HistoryEntry
	pingErr     error
}

func newFakeStore() *fakeStore {
	limit := 8
	s := &fakeStore{people: map[string]*recommend.Person{}}
	for _, p := range []*recommend.Person{
		{ID: "alex", HouseholdID: "h1", Name: "Alex"},
		{ID: "sam", HouseholdID: "h1", Name: "Sam", Boundaries: map[string]bool{"gore": true}},
		{ID: "kit", HouseholdID: "h1", Name: "Kit", AgeLimit: &limit},
		{ID: "robin", HouseholdID: "h2", Name: "Robin"},
	} {
		s.people[p.ID] = p
	}
	return s
}

func (s *fakeStore) PeopleInHousehold(_ context.Context, householdID string) ([]recommend.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recommend.Person
	for _, id := range []string{"alex", "sam", "kit", "robin"} {
		if p := s.people[id]; p.HouseholdID == householdID {
			out = append(out, *p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("household %s: %w", householdID, database.ErrNotFound)
	}
	return out, nil
}

func (s *fakeStore) GetPerson(_ context.Context, id string) (*recommend.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, database.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) InsertRating(_ context.Context, ev *recommend.RatingEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ItemID == "missing" {
		return "", fmt.Errorf("item %s: %w", ev.ItemID, database.ErrNotFound)
	}
	s.ratings = append(s.ratings, ev)
	return fmt.Sprintf("rating-%d", len(s.ratings)), nil
}

func (s *fakeStore) InsertPreference(_ context.Context, profile *recommend.PreferenceProfile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences = append(s.preferences, profile)
	return fmt.Sprintf("pref-%d", len(s.preferences)), nil
}

func (s *fakeStore) UpdateBoundaries(_ context.Context, personID string, ageLimit *int, boundaries map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[personID]
	if !ok {
		return database.ErrNotFound
	}
	p.AgeLimit = ageLimit
	p.Boundaries = boundaries
	return nil
}

func (s *fakeStore) InsertHistory(_ context.Context, personID, title string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, recommend.HistoryEntry{PersonID: personID, Title: title, SeenAt: seenAt})
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) GetRecordCounts(context.Context) (database.RecordCounts, error) {
	return database.RecordCounts{Items: 17, People: 4}, nil
}

// fakeRanker returns one item per requested person and records every call.
type fakeRanker struct {
	mu    sync.Mutex
	calls []recommend.Request
	err   error
}

func (f *fakeRanker) Rank(_ context.Context, req recommend.Request) (*recommend.Slate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	intent := req.Intent
	if intent == "" {
		intent = recommend.IntentDefault
	}
	slate := &recommend.Slate{Intent: intent, Items: []recommend.RankedItem{}}
	for _, p := range req.People {
		slate.Items = append(slate.Items, recommend.RankedItem{ID: "pick-" + p.ID, Title: "Pick for " + p.Name})
	}
	if len(req.People) > 1 {
		slate.Family = &recommend.FamilyMeta{StrongLockedIDs: []string{}, StrongMinFit: 0.6, StrongRule: "min"}
	}
	return slate, nil
}

func (f *fakeRanker) Calls() []recommend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recommend.Request(nil), f.calls...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*eventprocessor.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event *eventprocessor.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Events() []*eventprocessor.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*eventprocessor.Event(nil), f.events...)
}

// fakeVectors reports a settable breaker state.
type fakeVectors struct {
	mu    sync.Mutex
	state string
}

func (f *fakeVectors) BreakerState() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeVectors) set(state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

// testEnv is a router over fakes and a real in-memory result cache.
type testEnv struct {
	store     *fakeStore
	ranker    *fakeRanker
	publisher *fakePublisher
	vectors   *fakeVectors
	slates    *cache.Loader
	handler   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     newFakeStore(),
		ranker:    &fakeRanker{},
		publisher: &fakePublisher{},
		vectors:   &fakeVectors{state: "closed"},
		slates:    cache.NewLoader(cache.NewMemoryStore(cache.NewLRUCache(64, time.Minute)), zerolog.Nop()),
	}
	h := NewHandler(env.store, env.store, env.vectors, env.ranker, env.slates, env.publisher, HandlerConfig{
		DefaultCount: 6,
		MaxCount:     10,
		RankTimeout:  time.Second,
	})
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	env.handler = NewRouter(h, mw).Setup()
	return env
}

func (env *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// testResponse mirrors APIResponse with raw data for per-test decoding.
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                   `json:"code"`
		Message string                   `json:"message"`
		Details []map[string]interface{} `json:"details"`
	} `json:"error"`
	Meta *APIMeta `json:"meta"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

var errBackend = errors.New("backend unavailable")
