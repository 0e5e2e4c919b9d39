// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/couchside/internal/logging"
	"github.com/tomtom215/couchside/internal/recommend"
)

// DemoHouseholdID is the household created by SeedDemoData.
const DemoHouseholdID = "demo"

type seedItem struct {
	id, title string
	year      int
	genres    []string
	creators  []string
	epLen     int
	seasons   int
	rating    string
	flags     []string
	warnings  []string
	provider  string
	kind      recommend.OfferKind
}

var demoItems = []seedItem{
	{"bluey", "Bluey", 2018, []string{"animation", "family", "comedy"}, []string{"Joe Brumm"}, 8, 3, "G", []string{"funny", "warm"}, nil, "ABC iview", recommend.OfferFree},
	{"brokenwood", "The Brokenwood Mysteries", 2014, []string{"mystery", "crime"}, []string{"Tim Balme"}, 90, 9, "M", []string{"cozy", "slow"}, []string{"violence"}, "Acorn TV", recommend.OfferStream},
	{"death-in-paradise", "Death in Paradise", 2011, []string{"mystery", "crime", "comedy"}, []string{"Robert Thorogood"}, 60, 13, "PG", []string{"cozy", "funny"}, nil, "Stan", recommend.OfferStream},
	{"vera", "Vera", 2011, []string{"mystery", "crime", "drama"}, []string{"Ann Cleeves"}, 90, 13, "M", []string{"slow"}, []string{"violence"}, "BritBox", recommend.OfferStream},
	{"shetland", "Shetland", 2013, []string{"mystery", "crime", "drama"}, []string{"Ann Cleeves"}, 60, 8, "MA 15+", []string{"slow", "cliffhanger"}, []string{"violence", "sexual_violence"}, "BritBox", recommend.OfferStream},
	{"ted-lasso", "Ted Lasso", 2020, []string{"comedy", "sports", "drama"}, []string{"Bill Lawrence"}, 35, 3, "MA 15+", []string{"funny", "warm", "hopeful"}, []string{"language"}, "Apple TV+", recommend.OfferStream},
	{"great-british-bake-off", "The Great British Bake Off", 2010, []string{"reality", "food"}, []string{"Love Productions"}, 60, 14, "G", []string{"cozy", "warm"}, nil, "SBS On Demand", recommend.OfferAds},
	{"only-murders", "Only Murders in the Building", 2021, []string{"mystery", "comedy"}, []string{"Steve Martin", "John Hoffman"}, 30, 4, "M", []string{"funny", "cliffhanger"}, []string{"violence"}, "Disney+", recommend.OfferStream},
	{"slow-horses", "Slow Horses", 2022, []string{"thriller", "spy", "drama"}, []string{"Will Smith"}, 50, 4, "MA 15+", []string{"cliffhanger"}, []string{"violence", "language"}, "Apple TV+", recommend.OfferStream},
	{"the-expanse", "The Expanse", 2015, []string{"scifi", "drama", "thriller"}, []string{"Mark Fergus", "Hawk Ostby"}, 45, 6, "MA 15+", []string{"cliffhanger"}, []string{"violence", "gore"}, "Prime Video", recommend.OfferStream},
	{"grand-designs", "Grand Designs", 1999, []string{"reality", "documentary"}, []string{"Kevin McCloud"}, 50, 20, "G", []string{"slow", "hopeful"}, nil, "ABC iview", recommend.OfferFree},
	{"good-omens", "Good Omens", 2019, []string{"fantasy", "comedy"}, []string{"Neil Gaiman"}, 55, 2, "M", []string{"funny", "warm"}, nil, "Prime Video", recommend.OfferStream},
	{"mythic-quest", "Mythic Quest", 2020, []string{"comedy", "workplace"}, []string{"Rob McElhenney"}, 30, 4, "MA 15+", []string{"funny"}, []string{"language"}, "Apple TV+", recommend.OfferStream},
	{"the-bear", "The Bear", 2022, []string{"drama", "comedy", "food"}, []string{"Christopher Storer"}, 30, 3, "MA 15+", []string{"cliffhanger"}, []string{"language", "addiction"}, "Disney+", recommend.OfferStream},
	{"wallace-gromit", "Wallace & Gromit", 1989, []string{"animation", "family", "comedy"}, []string{"Nick Park"}, 25, 1, "G", []string{"funny", "warm"}, nil, "Netflix", recommend.OfferStream},
	{"planet-earth", "Planet Earth", 2006, []string{"documentary", "nature"}, []string{"David Attenborough"}, 50, 3, "G", []string{"slow", "hopeful"}, nil, "Netflix", recommend.OfferStream},
	{"the-traitors", "The Traitors", 2022, []string{"reality", "competition"}, []string{"Studio Lambert"}, 60, 3, "PG", []string{"cliffhanger"}, nil, "", ""},
}

// SeedDemoData loads a demo household with three people, a small catalog
// with availability, and a few ratings. It does nothing when the demo
// household already exists.
func (db *DB) SeedDemoData(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var exists int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM households WHERE id = ?`, DemoHouseholdID).Scan(&exists); err != nil {
		return fmt.Errorf("check demo household: %w", err)
	}
	if exists > 0 {
		logging.Debug().Msg("Demo data already present, skipping seed")
		return nil
	}

	logging.Info().Int("items", len(demoItems)).Msg("Seeding demo household and catalog")

	now := time.Now().UTC()
	for i := range demoItems {
		s := &demoItems[i]
		it := recommend.Item{
			ID:    s.id,
			Title: s.title,
			Year:  s.year,
			Metadata: recommend.Metadata{
				Genres:        s.genres,
				Creators:      s.creators,
				EpisodeLength: s.epLen,
				Seasons:       s.seasons,
				Region:        "AU",
				AURating:      s.rating,
			},
			Flags:    s.flags,
			Warnings: s.warnings,
		}
		if s.provider != "" {
			it.Offers = []recommend.Offer{{
				Provider:  s.provider,
				Kind:      s.kind,
				Quality:   "HD",
				Season:    s.seasons,
				UpdatedAt: now.Add(-time.Duration(i) * 12 * time.Hour),
			}}
		}
		if err := db.UpsertItem(ctx, &it); err != nil {
			return fmt.Errorf("seed item %s: %w", s.id, err)
		}
	}

	if err := db.UpsertHousehold(ctx, DemoHouseholdID, "Demo household"); err != nil {
		return err
	}
	kidLimit := 8
	people := []recommend.Person{
		{ID: "demo-alex", HouseholdID: DemoHouseholdID, Name: "Alex"},
		{ID: "demo-sam", HouseholdID: DemoHouseholdID, Name: "Sam", Boundaries: map[string]bool{"sexual_violence": true, "gore": true}},
		{ID: "demo-kit", HouseholdID: DemoHouseholdID, Name: "Kit", AgeLimit: &kidLimit},
	}
	for i := range people {
		if err := db.UpsertPerson(ctx, &people[i]); err != nil {
			return fmt.Errorf("seed person %s: %w", people[i].ID, err)
		}
	}

	ratings := []recommend.RatingEvent{
		{PersonID: "demo-alex", ItemID: "death-in-paradise", Verdict: recommend.VerdictVeryGood, NuanceTags: []string{"cozy"}},
		{PersonID: "demo-alex", ItemID: "slow-horses", Verdict: recommend.VerdictVeryGood, NuanceTags: []string{"witty"}},
		{PersonID: "demo-alex", ItemID: "the-bear", Verdict: recommend.VerdictBad, Note: "too stressful"},
		{PersonID: "demo-sam", ItemID: "great-british-bake-off", Verdict: recommend.VerdictVeryGood, NuanceTags: []string{"comfort"}},
		{PersonID: "demo-sam", ItemID: "ted-lasso", Verdict: recommend.VerdictVeryGood},
		{PersonID: "demo-sam", ItemID: "vera", Verdict: recommend.VerdictAcceptable},
		{PersonID: "demo-kit", ItemID: "bluey", Verdict: recommend.VerdictVeryGood},
	}
	for i := range ratings {
		ratings[i].CreatedAt = now.Add(time.Duration(i-len(ratings)) * time.Hour)
		if _, err := db.InsertRating(ctx, &ratings[i]); err != nil {
			return fmt.Errorf("seed rating: %w", err)
		}
	}

	if err := db.InsertHistory(ctx, "demo-alex", "Vera", now.Add(-48*time.Hour)); err != nil {
		return err
	}
	return nil
}
