package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/internal/providers"
)

type stubRatingsFetcher struct {
	players []providers.RatedPlayer
	err     error
}

func (s stubRatingsFetcher) FetchRatedPlayers(ctx context.Context) ([]providers.RatedPlayer, error) {
	return s.players, s.err
}

type stubArchiveFetcher struct {
	inputs []identity.Input
}

func (s stubArchiveFetcher) FetchPlayers(ctx context.Context, tour providers.Tour) ([]identity.Input, error) {
	return s.inputs, nil
}

type stubRankingsFetcher struct {
	week time.Time
	rows []providers.RankingRow
}

func (s stubRankingsFetcher) FetchSnapshot(ctx context.Context) (time.Time, []providers.RankingRow, error) {
	return s.week, s.rows, nil
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestRefreshRatingsImportsPlayersAndRatings(t *testing.T) {
	store := newTestIdentityStore(t)
	importer := NewImporterService(nil, store, identity.LCSScorer{}, 0.85, 2, quietLogger())

	asOf := mustDay(t, "2024-06-10")
	ratings := stubRatingsFetcher{players: []providers.RatedPlayer{
		{
			Input:  identity.Input{Source: models.SourceRatings, SourceID: "209113", Name: "Gabriel Diallo", Country: "CAN", Gender: "m"},
			Rating: 14.1,
			Date:   asOf,
		},
		{
			Input:  identity.Input{Source: models.SourceRatings, SourceID: "217512", Name: "Iga Swiatek", Country: "POL", Gender: "f"},
			Rating: 21.8,
			Date:   asOf,
		},
	}}
	svc := NewRefreshService(ratings, nil, nil, importer, quietLogger())

	result, err := svc.Refresh(context.Background(), models.SourceRatings)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Resolved)
	assert.Equal(t, 0, result.Failed)

	temporal := identity.NewTemporalResolver(store)
	for i, want := range []float64{14.1, 21.8} {
		canonicalID, perr := identity.ParseCanonicalID(result.Outcomes[i].Result.CanonicalID)
		require.NoError(t, perr)
		value, verr := temporal.AttributeAsOf(canonicalID, models.AttributeRating, asOf, 0)
		require.NoError(t, verr)
		require.NotNil(t, value)
		assert.Equal(t, want, value.Value)
	}
}

func TestRefreshArchiveResolvesPlayers(t *testing.T) {
	store := newTestIdentityStore(t)
	importer := NewImporterService(nil, store, identity.LCSScorer{}, 0.85, 2, quietLogger())

	archive := stubArchiveFetcher{inputs: []identity.Input{
		{Source: models.SourceATPArchive, SourceID: "A_209113", Name: "Gabriel Diallo", Country: "CAN", Gender: "m"},
		{Source: models.SourceATPArchive, SourceID: "A_206173", Name: "Jannik Sinner", Country: "ITA", Gender: "m"},
	}}
	svc := NewRefreshService(nil, archive, nil, importer, quietLogger())

	result, err := svc.Refresh(context.Background(), models.SourceATPArchive)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Resolved)

	mapping, err := store.LookupMapping(models.SourceATPArchive, "A_209113")
	require.NoError(t, err)
	require.NotNil(t, mapping)
}

func TestRefreshRankingsImportsSnapshot(t *testing.T) {
	store := newTestIdentityStore(t)
	importer := NewImporterService(nil, store, identity.LCSScorer{}, 0.85, 2, quietLogger())

	week := mustDay(t, "2024-06-10")
	rankings := stubRankingsFetcher{week: week, rows: []providers.RankingRow{
		{Name: "Sinner, Jannik", Rank: 1, Points: 9570, Country: "ITA"},
		{Name: "Alcaraz, Carlos", Rank: 2, Points: 8580, Country: "ESP"},
	}}
	svc := NewRefreshService(nil, nil, rankings, importer, quietLogger())

	result, err := svc.Refresh(context.Background(), models.SourceRankings)
	require.NoError(t, err)
	require.Equal(t, 2, result.Resolved)

	temporal := identity.NewTemporalResolver(store)
	canonicalID, err := identity.ParseCanonicalID(result.Outcomes[0].Result.CanonicalID)
	require.NoError(t, err)
	value, err := temporal.AttributeAsOf(canonicalID, models.AttributeRanking, week, 0)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, float64(1), value.Value)
}

func TestRefreshPropagatesProviderError(t *testing.T) {
	store := newTestIdentityStore(t)
	importer := NewImporterService(nil, store, identity.LCSScorer{}, 0.85, 2, quietLogger())

	ratings := stubRatingsFetcher{err: errors.New("provider down")}
	svc := NewRefreshService(ratings, nil, nil, importer, quietLogger())

	_, err := svc.Refresh(context.Background(), models.SourceRatings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestRefreshRejectsUnknownSource(t *testing.T) {
	store := newTestIdentityStore(t)
	importer := NewImporterService(nil, store, identity.LCSScorer{}, 0.85, 2, quietLogger())
	svc := NewRefreshService(nil, nil, nil, importer, quietLogger())

	_, err := svc.Refresh(context.Background(), models.Source("bootleg"))
	require.Error(t, err)
}
