package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldron/tennisiq/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func seedAttribute(t *testing.T, store *GormStore, playerID uint64, date string, value float64) {
	t.Helper()
	require.NoError(t, store.AppendAttribute(models.PlayerAttribute{
		PlayerID:      playerID,
		AttributeType: models.AttributeRanking,
		Date:          day(t, date),
		Value:         value,
	}))
}

func TestAttributeAsOfPicksLatestAtOrBefore(t *testing.T) {
	store := newTestStore(t)
	resolver := NewTemporalResolver(store)

	id, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
	require.NoError(t, err)
	seedAttribute(t, store, id, "2024-01-08", 130)
	seedAttribute(t, store, id, "2024-06-10", 98)
	seedAttribute(t, store, id, "2024-09-02", 85)

	value, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-07-01"), 60)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 98.0, value.Value)
	assert.Equal(t, day(t, "2024-06-10"), value.AsOfDate)
}

func TestAttributeAsOfStalenessBoundary(t *testing.T) {
	store := newTestStore(t)
	resolver := NewTemporalResolver(store)

	id, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
	require.NoError(t, err)
	seedAttribute(t, store, id, "2024-06-03", 101)
	seedAttribute(t, store, id, "2024-06-10", 98)

	// Record dated exactly on the target date is staleness 0, always valid.
	value, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-06-10"), 0)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 98.0, value.Value)

	// One day past with a zero-day window is too stale.
	stale, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-06-11"), 0)
	require.NoError(t, err)
	assert.Nil(t, stale)

	// A one-day window accepts it again.
	fresh, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-06-11"), 1)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, 98.0, fresh.Value)
}

func TestAttributeAsOfNoHistory(t *testing.T) {
	store := newTestStore(t)
	resolver := NewTemporalResolver(store)

	id, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
	require.NoError(t, err)
	seedAttribute(t, store, id, "2024-06-10", 98)

	// Nothing at or before the target date.
	value, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-06-09"), 365)
	require.NoError(t, err)
	assert.Nil(t, value)

	// Unknown attribute type.
	value, err = resolver.AttributeAsOf(id, models.AttributeRating, day(t, "2024-06-10"), 365)
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestAttributeAsOfSameDayTieBreak(t *testing.T) {
	store := newTestStore(t)
	resolver := NewTemporalResolver(store)

	id, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
	require.NoError(t, err)

	// Same-day correction: the later insert must win, reproducibly.
	seedAttribute(t, store, id, "2024-06-10", 98)
	seedAttribute(t, store, id, "2024-06-10", 97)

	for i := 0; i < 5; i++ {
		value, err := resolver.AttributeAsOf(id, models.AttributeRanking, day(t, "2024-06-10"), 0)
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, 97.0, value.Value)
	}
}
