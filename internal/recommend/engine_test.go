// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package recommend

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/couchside/internal/rationale"
	"github.com/tomtom215/couchside/internal/recommend/embedding"
)

var testEpoch = time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)

// memSource is an in-memory DataSource.
type memSource struct {
	items   []Item
	ratings []RatingEvent
	prefs   map[string]PreferenceProfile
	history []HistoryEntry
	err     error
}

func (m *memSource) Catalog(context.Context) ([]Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memSource) Ratings(_ context.Context, ids []string) ([]RatingEvent, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []RatingEvent
	for _, r := range m.ratings {
		if want[r.PersonID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSource) LatestPreferences(_ context.Context, ids []string) (map[string]PreferenceProfile, error) {
	out := make(map[string]PreferenceProfile)
	for _, id := range ids {
		if p, ok := m.prefs[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memSource) RecentHistory(_ context.Context, _ []string, limit int) ([]HistoryEntry, error) {
	if len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *memSource) rate(personID, itemID string, v Verdict, at time.Time) {
	m.ratings = append(m.ratings, RatingEvent{PersonID: personID, ItemID: itemID, Verdict: v, CreatedAt: at})
}

func intPtr(v int) *int { return &v }

func seedPtr(v int64) *int64 { return &v }

// mkItem builds an item with one fresh offer.
func mkItem(id string, epLen int, genres, creators []string) Item {
	return Item{
		ID:    id,
		Title: "Title " + id,
		Metadata: Metadata{
			Genres:        genres,
			Creators:      creators,
			EpisodeLength: epLen,
			Seasons:       2,
			Region:        "AU",
		},
		Offers: []Offer{{Provider: "Stan", Kind: OfferStream, UpdatedAt: testEpoch}},
	}
}

func newTestEngine(t *testing.T, src DataSource, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewEngine(cfg, src, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.SetClock(func() time.Time { return testEpoch.Add(24 * time.Hour) })
	return e
}

// tasteFixture: person "ana" loved ten mystery/cozy titles (no offers, so
// never recommended) and the catalog mixes matching and unrelated items.
func tasteFixture() *memSource {
	src := &memSource{prefs: map[string]PreferenceProfile{}}
	for i := 0; i < 10; i++ {
		rated := mkItem(fmt.Sprintf("rated-%02d", i), 45, []string{"mystery", "cozy"}, []string{fmt.Sprintf("Creator %d", i)})
		rated.Offers = nil
		src.items = append(src.items, rated)
		src.rate("ana", rated.ID, VerdictVeryGood, testEpoch.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 8; i++ {
		src.items = append(src.items, mkItem(fmt.Sprintf("cozy-%02d", i), 40+i, []string{"mystery", "cozy"}, []string{fmt.Sprintf("Creator %d", i%3)}))
	}
	for i := 0; i < 8; i++ {
		src.items = append(src.items, mkItem(fmt.Sprintf("other-%02d", i), 30+5*i, []string{"action", "scifi"}, []string{fmt.Sprintf("Stranger %d", i)}))
	}
	return src
}

func ana() Person { return Person{ID: "ana", HouseholdID: "h1", Name: "Ana"} }

func TestRankIsDeterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, tasteFixture(), nil)
	req := Request{People: []Person{ana()}, Intent: IntentDefault, Count: 6, Seed: seedPtr(7)}

	a, err := e.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	b, err := e.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("slates differ:\n%v\n%v", a.IDs(), b.IDs())
	}
	if len(a.Items) != 6 {
		t.Errorf("len = %d, want 6", len(a.Items))
	}
}

func TestRankTasteScenario(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, tasteFixture(), nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana()}, Count: 6})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	items := append([]RankedItem{}, slate.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	found := false
	for _, it := range items[:3] {
		for _, g := range it.Genres {
			if g == "mystery" || g == "cozy" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("no mystery/cozy item in the top 3: %v", slate.IDs())
	}
}

func TestRankBadRatingChangesTopPick(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	e := newTestEngine(t, src, nil)
	req := Request{People: []Person{ana()}, Count: 6, Seed: seedPtr(3)}

	before, err := e.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	top := before.Items[0].ID
	src.rate("ana", top, VerdictBad, testEpoch.Add(time.Hour))

	after, err := e.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if after.Items[0].ID == top {
		t.Errorf("rank 1 still %s after a BAD rating", top)
	}
}

func TestRankAgeAndBoundaryInvariant(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	src.items[10].Metadata.AgeRating = intPtr(18)
	src.items[11].Metadata.AURating = "MA 15+"
	src.items[12].Metadata.AURating = "PG"
	src.items[13].Warnings = []string{"gore"}
	src.items[14].Flags = []string{"gore"}

	kid := Person{ID: "kid", Name: "Kid", AgeLimit: intPtr(12), Boundaries: map[string]bool{"gore": true, "spiders": false}}
	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana(), kid}, Count: 10})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(slate.Items) == 0 {
		t.Fatal("empty slate")
	}
	for _, it := range slate.Items {
		if it.AgeRating != nil && *it.AgeRating > 12 {
			t.Errorf("%s age rating %d exceeds 12", it.ID, *it.AgeRating)
		}
		if it.AURating == "MA 15+" {
			t.Errorf("%s rated MA 15+ returned", it.ID)
		}
		for _, tag := range append(append([]string{}, it.Warnings...), it.Flags...) {
			if tag == "gore" {
				t.Errorf("%s carries excluded tag gore", it.ID)
			}
		}
	}
}

func TestRankShortTonightEpisodeLength(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	unknown := mkItem("unknown-length", 0, []string{"mystery"}, nil)
	src.items = append(src.items, unknown)

	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana()}, Intent: IntentShortTonight, Count: 10})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(slate.Items) == 0 {
		t.Fatal("empty slate")
	}
	byID := map[string]Item{}
	for _, it := range src.items {
		byID[it.ID] = it
	}
	for _, it := range slate.Items {
		l := byID[it.ID].Metadata.EpisodeLength
		if l == 0 || l > 35 {
			t.Errorf("%s episode length %d not short", it.ID, l)
		}
	}
}

func TestRankRationaleSafety(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	src.items[10].Metadata.Genres = []string{"murder", "mystery"}
	src.items[11].Metadata.Genres = []string{"finale"}

	e := newTestEngine(t, src, func(c *Config) { c.RationaleMaxChars = 60 })
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana()}, Count: 16})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	sawFallback := false
	for _, it := range slate.Items {
		if len([]rune(it.Rationale)) > 60 {
			t.Errorf("%s rationale too long: %q", it.ID, it.Rationale)
		}
		if err := rationale.Lint(it.Rationale); err != nil {
			t.Errorf("%s rationale failed lint: %q", it.ID, it.Rationale)
		}
		if it.Rationale == rationale.Fallback {
			sawFallback = true
		}
	}
	if !sawFallback {
		t.Error("expected the generic fallback for a spoiler-tainted rationale")
	}
}

func TestRankBoundarySubstitution(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	// Most of the matching items carry a warning the viewer now excludes.
	for i := 10; i < 16; i++ {
		src.items[i].Warnings = []string{"violence"}
	}
	strict := ana()
	strict.Boundaries = map[string]bool{"violence": true}

	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{strict}, Count: 6})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	marked := 0
	for _, it := range slate.Items {
		if strings.Contains(it.Rationale, "Boundary-safe alternative") {
			marked++
			if !it.Substitute {
				t.Errorf("%s has the marker but is not flagged as substitute", it.ID)
			}
		}
		for _, w := range it.Warnings {
			if w == "violence" {
				t.Errorf("%s carries an excluded warning", it.ID)
			}
		}
	}
	if marked == 0 {
		t.Errorf("no substitute in slate %v", slate.IDs())
	}
}

func TestRankBoundaryIgnoresCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		warnings []string
		flags    []string
	}{
		{name: "capitalised boundary", key: "Violence", warnings: []string{"violence"}},
		{name: "capitalised warning", key: "violence", warnings: []string{"Violence"}},
		{name: "flag with spaces", key: " VIOLENCE ", flags: []string{"violence"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gory := mkItem("gory", 30, []string{"thriller"}, nil)
			gory.Warnings = tt.warnings
			gory.Flags = tt.flags
			src := &memSource{items: []Item{gory, mkItem("calm", 30, []string{"thriller"}, nil)}}
			viewer := ana()
			viewer.Boundaries = map[string]bool{tt.key: true}

			e := newTestEngine(t, src, nil)
			slate, err := e.Rank(context.Background(), Request{People: []Person{viewer}, Count: 2})
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if want := []string{"calm"}; !reflect.DeepEqual(slate.IDs(), want) {
				t.Errorf("slate = %v, want %v", slate.IDs(), want)
			}
		})
	}
}

// disjointTasteFixture: three people with disjoint tastes. Each shared
// item fits everyone a little; each only-pN item fits one person well and
// the others below the frontier floor.
func disjointTasteFixture() (*memSource, []Person) {
	src := &memSource{}
	people := []Person{
		{ID: "p1", Name: "One"},
		{ID: "p2", Name: "Two"},
		{ID: "p3", Name: "Three"},
	}
	tastes := []struct {
		person, genre, creator string
	}{
		{"p1", "comedy", "C1"},
		{"p2", "horror", "C2"},
		{"p3", "scifi", "C3"},
	}
	for i, tt := range tastes {
		rated := mkItem("rated-"+tt.person, 30, []string{tt.genre}, []string{tt.creator})
		rated.Offers = nil
		src.items = append(src.items, rated)
		src.rate(tt.person, rated.ID, VerdictVeryGood, testEpoch)

		src.items = append(src.items, mkItem("shared-"+fmt.Sprint(i), 30, []string{"comedy", "horror", "scifi"}, nil))
		src.items = append(src.items, mkItem("only-"+tt.person, 30, []string{tt.genre}, []string{tt.creator}))
	}
	return src, people
}

func TestRankFamilyCoverage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		want  []string
	}{
		// Room left after the frontier: coverage appends.
		{name: "slate has room", count: 6},
		// Slate full of shared items: every swap must keep earlier covers.
		{name: "slate full", count: 3, want: []string{"only-p1", "only-p2", "only-p3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, people := disjointTasteFixture()
			e := newTestEngine(t, src, nil)
			slate, err := e.Rank(context.Background(), Request{People: people, Count: tt.count})
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			if len(slate.Items) > tt.count {
				t.Errorf("slate has %d items, want at most %d", len(slate.Items), tt.count)
			}
			threshold := e.Config().Family.CoverageMinFit
			for _, p := range people {
				covered := false
				for _, it := range slate.Items {
					for _, f := range it.FitByPerson {
						if f.PersonID == p.ID && f.Score >= threshold {
							covered = true
						}
					}
				}
				if !covered {
					t.Errorf("%s has no item with fit >= %.2f in %v", p.ID, threshold, slate.IDs())
				}
			}
			if tt.want != nil && !reflect.DeepEqual(slate.IDs(), tt.want) {
				t.Errorf("slate = %v, want %v", slate.IDs(), tt.want)
			}
			if slate.Family == nil || slate.Family.Warning == nil || slate.Family.Warning.Code != WarningNoStrongPick {
				t.Errorf("expected no_strong_pick warning, got %+v", slate.Family)
			}
			for i := 1; i < len(slate.Items); i++ {
				a, b := slate.Items[i-1], slate.Items[i]
				if a.Score < b.Score || (a.Score == b.Score && a.ID > b.ID) {
					t.Errorf("family slate not sorted at %d: %s(%f) before %s(%f)", i, a.ID, a.Score, b.ID, b.Score)
				}
			}
		})
	}
}

func TestRankFamilyFrontierNonDominated(t *testing.T) {
	t.Parallel()

	src := &memSource{}
	people := []Person{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}
	for _, r := range []struct{ person, genre, creator string }{
		{"p1", "drama", "A"},
		{"p2", "comedy", "B"},
	} {
		rated := mkItem("rated-"+r.person, 30, []string{r.genre}, []string{r.creator})
		rated.Offers = nil
		src.items = append(src.items, rated)
		src.rate(r.person, rated.ID, VerdictVeryGood, testEpoch)
	}
	src.items = append(src.items,
		mkItem("drama-a", 30, []string{"drama"}, []string{"A"}),   // (0.8, 0.1)
		mkItem("comedy-b", 30, []string{"comedy"}, []string{"B"}), // (0.1, 0.8)
		mkItem("dramedy", 30, []string{"drama", "comedy"}, nil),   // (0.3, 0.3)
		mkItem("drama", 30, []string{"drama"}, nil),               // (0.3, 0.1)
		mkItem("plain", 30, []string{"documentary"}, nil),         // (0.1, 0.1)
	)

	e := newTestEngine(t, src, func(c *Config) { c.Family.Floor = 0 })
	slate, err := e.Rank(context.Background(), Request{People: people, Count: 3})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	got := slate.IDs()
	sort.Strings(got)
	if want := []string{"comedy-b", "drama-a", "dramedy"}; !reflect.DeepEqual(got, want) {
		t.Errorf("slate = %v, want frontier %v", got, want)
	}

	fits := func(it RankedItem) []float64 {
		out := make([]float64, len(people))
		for _, f := range it.FitByPerson {
			for i, p := range people {
				if f.PersonID == p.ID {
					out[i] = f.Score
				}
			}
		}
		return out
	}
	for i, a := range slate.Items {
		for j, b := range slate.Items {
			if i != j && dominates(fits(b), fits(a)) {
				t.Errorf("%s %v dominated by %s %v", a.ID, fits(a), b.ID, fits(b))
			}
		}
	}
}

func TestRankFamilyLocksStrongPick(t *testing.T) {
	t.Parallel()

	src := &memSource{}
	people := []Person{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}
	rated := mkItem("rated", 30, []string{"drama"}, []string{"Shared"})
	rated.Offers = nil
	src.items = append(src.items, rated,
		mkItem("both-love", 30, []string{"drama"}, []string{"Shared"}),
		mkItem("meh-1", 30, []string{"drama"}, nil),
		mkItem("meh-2", 30, []string{"drama"}, nil),
	)
	src.rate("p1", "rated", VerdictVeryGood, testEpoch)
	src.rate("p2", "rated", VerdictVeryGood, testEpoch)

	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: people, Count: 3})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if slate.Family == nil {
		t.Fatal("family meta missing")
	}
	if !reflect.DeepEqual(slate.Family.StrongLockedIDs, []string{"both-love"}) {
		t.Errorf("StrongLockedIDs = %v, want [both-love]", slate.Family.StrongLockedIDs)
	}
	if slate.Family.Warning != nil {
		t.Errorf("unexpected warning %+v", slate.Family.Warning)
	}
	if slate.Items[0].ID != "both-love" || !slate.Items[0].FamilyStrong {
		t.Errorf("first item = %s strong=%v, want both-love strong", slate.Items[0].ID, slate.Items[0].FamilyStrong)
	}
	if slate.Family.StrongRule != StrongRuleMin || slate.Family.StrongMinFit != 0.78 {
		t.Errorf("rule/threshold = %s/%v", slate.Family.StrongRule, slate.Family.StrongMinFit)
	}
}

func TestRankDegradesGracefully(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, tasteFixture(), nil)
	ctx := context.Background()

	empty, err := e.Rank(ctx, Request{})
	if err != nil || len(empty.Items) != 0 {
		t.Errorf("empty people: %v, %v", empty, err)
	}

	base, err := e.Rank(ctx, Request{People: []Person{ana()}, Seed: seedPtr(1)})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	withAnchor, err := e.Rank(ctx, Request{People: []Person{ana()}, Seed: seedPtr(1), AnchorID: "does-not-exist"})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !reflect.DeepEqual(base, withAnchor) {
		t.Error("unknown anchor changed the slate")
	}
	if len(base.Items) != e.Config().DefaultCount {
		t.Errorf("default count = %d, want %d", len(base.Items), e.Config().DefaultCount)
	}

	if _, err := e.Rank(ctx, Request{People: []Person{ana()}, Intent: "doomscroll"}); !errors.Is(err, ErrUnknownIntent) {
		t.Errorf("err = %v, want ErrUnknownIntent", err)
	}
}

func TestRankAnchorAddsReason(t *testing.T) {
	t.Parallel()

	src := tasteFixture()
	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana()}, AnchorID: "cozy-00", Count: 6})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	snap, err := e.Load(context.Background(), []Person{ana()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := &ranker{cfg: e.config, req: Request{People: []Person{ana()}, AnchorID: "cozy-00"}, snap: snap, logger: zerolog.Nop()}
	r.items = map[string]*Item{}
	for i := range snap.Items {
		r.items[snap.Items[i].ID] = &snap.Items[i]
	}
	r.gs = aggregateSignals(r.req.People, snap, r.items)
	scored := r.scoreCandidates([]*Item{r.items["cozy-01"], r.items["cozy-00"]})
	if scored[0].Reasons[0] != "Similar to Title cozy-00" || scored[0].Factors.Anchor <= 0 {
		t.Errorf("anchor reason/bonus missing: %v %f", scored[0].Reasons, scored[0].Factors.Anchor)
	}
	if len(scored[0].Reasons) > 3 {
		t.Errorf("reasons not capped: %v", scored[0].Reasons)
	}
	if scored[1].Factors.Anchor != 0 {
		t.Error("the anchor itself must not receive the bonus")
	}
	if len(slate.Items) != 6 {
		t.Errorf("len = %d, want 6", len(slate.Items))
	}
}

func TestRankAvailabilityMeta(t *testing.T) {
	t.Parallel()

	src := &memSource{}
	fresh := mkItem("fresh", 30, []string{"drama"}, nil)
	fresh.Offers = []Offer{
		{Provider: "Old", Kind: OfferRent, UpdatedAt: testEpoch.Add(-30 * 24 * time.Hour)},
		{Provider: "Stan", Kind: OfferStream, Season: 2, UpdatedAt: testEpoch},
	}
	stale := mkItem("stale", 30, []string{"drama"}, nil)
	stale.Offers = []Offer{{Provider: "Binge", Kind: OfferStream}}
	src.items = []Item{fresh, stale}

	e := newTestEngine(t, src, nil)
	slate, err := e.Rank(context.Background(), Request{People: []Person{ana()}, Count: 2})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	got := map[string]RankedItem{}
	for _, it := range slate.Items {
		got[it.ID] = it
	}
	fa := got["fresh"].Availability
	if fa == nil || fa.Provider != "Stan" || fa.Stale || fa.AsOf == nil || !fa.SeasonConsistent {
		t.Errorf("fresh availability = %+v", fa)
	}
	if !strings.HasSuffix(got["fresh"].Rationale, "(showing S2 on Stan)") {
		t.Errorf("season hint missing: %q", got["fresh"].Rationale)
	}
	if len(got["fresh"].WhereToWatch) != 2 {
		t.Errorf("where to watch = %v", got["fresh"].WhereToWatch)
	}
	sa := got["stale"].Availability
	if sa == nil || !sa.Stale || sa.AsOf != nil {
		t.Errorf("stale availability = %+v", sa)
	}
	if slate.StaleCount() != 1 {
		t.Errorf("StaleCount = %d, want 1", slate.StaleCount())
	}
}

func TestLoadPropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("catalog offline")
	e := newTestEngine(t, &memSource{err: boom}, nil)
	if _, err := e.Rank(context.Background(), Request{People: []Person{ana()}}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestLoadNeighborOrder(t *testing.T) {
	t.Parallel()

	db, err := embedding.OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store := embedding.NewStored(embedding.NewBadgerStore(db), embedding.BreakerConfig{FailureThreshold: 3, Timeout: time.Minute})

	src := tasteFixture()
	ctx := context.Background()
	features := make([]embedding.Features, len(src.items))
	for i := range src.items {
		features[i] = ItemFeatures(&src.items[i])
	}
	if _, err := store.RebuildItems(ctx, features); err != nil {
		t.Fatalf("RebuildItems: %v", err)
	}

	cfg := DefaultConfig()
	cfg.VectorSearchMinItems = 5
	cfg.NeighborLimit = 4
	e, err := NewEngine(cfg, src, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	snap, err := e.Load(ctx, []Person{ana()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Neighbors) != 0 {
		t.Errorf("neighbors without a stored person vector: %v", snap.Neighbors)
	}

	weights := PersonWeights(GroupRatings(src.ratings)["ana"], src.items)
	if err := store.RebuildPerson(ctx, "ana", weights); err != nil {
		t.Fatalf("RebuildPerson: %v", err)
	}
	snap, err = e.Load(ctx, []Person{ana()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Neighbors) != 4 {
		t.Fatalf("neighbors = %v, want 4", snap.Neighbors)
	}
	for _, id := range snap.Neighbors {
		if strings.HasPrefix(id, "other-") {
			t.Errorf("unrelated item %s among nearest neighbors", id)
		}
	}
	order := walkOrder(snap.Items, snap.Neighbors)
	for i, id := range snap.Neighbors {
		if order[i].ID != id {
			t.Errorf("walk position %d = %s, want %s", i, order[i].ID, id)
		}
	}

	// A new rating leaves the stored vector behind until it is rebuilt.
	src.rate("ana", "other-00", VerdictVeryGood, testEpoch.Add(time.Hour))
	snap, err = e.Load(ctx, []Person{ana()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Neighbors) != 0 {
		t.Errorf("neighbors from a stale person vector: %v", snap.Neighbors)
	}
	current := PersonWeights(GroupRatings(src.ratings)["ana"], src.items)
	if want := (embedding.Ephemeral{}).PersonVector(ctx, "ana", current); !reflect.DeepEqual(snap.PersonVector, want) {
		t.Error("person vector does not reflect the latest rating")
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Family.StrongRule = "median"
	if _, err := NewEngine(cfg, &memSource{}, nil, zerolog.Nop()); err == nil {
		t.Error("expected config error")
	}
}
