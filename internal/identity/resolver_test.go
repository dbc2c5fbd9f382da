package identity

import (
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldron/tennisiq/internal/models"
)

func newTestResolver(t *testing.T, threshold float64) (*Resolver, *GormStore) {
	t.Helper()
	store := newTestStore(t)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewResolver(store, LCSScorer{}, threshold, logger), store
}

// seedRatingsPlayer registers a canonical player known to the rating provider.
func seedRatingsPlayer(t *testing.T, store *GormStore, name, ratingsID string) uint64 {
	t.Helper()
	id, err := store.UpsertPlayer(PlayerFields{DisplayName: name})
	require.NoError(t, err)
	require.NoError(t, store.RecordMapping(models.ExternalIdentity{
		Source: models.SourceRatings, SourceID: ratingsID, PlayerID: id, MatchedBy: models.MatchedCreated,
	}))
	return id
}

func TestResolveCanonicalPassthrough(t *testing.T) {
	resolver, _ := newTestResolver(t, 0)

	result, err := resolver.Resolve(Input{SourceID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "42", result.CanonicalID)
	assert.Equal(t, ConfidenceCached, result.Confidence)
}

func TestResolveExactNameMatchRecordsMapping(t *testing.T) {
	resolver, store := newTestResolver(t, 0)
	id := seedRatingsPlayer(t, store, "Gabriel Diallo", "209113")

	result, err := resolver.Resolve(Input{
		Source:   models.SourceATPArchive,
		SourceID: "A_209113",
		Name:     "Gabriel Diallo",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceExact, result.Confidence)
	assert.Equal(t, "1", result.CanonicalID)

	// The exact match must have been recorded so the pair is now cached.
	mapping, err := store.LookupMapping(models.SourceATPArchive, "A_209113")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, id, mapping.PlayerID)
	assert.Equal(t, models.MatchedExact, mapping.MatchedBy)

	second, err := resolver.Resolve(Input{
		Source:   models.SourceATPArchive,
		SourceID: "A_209113",
		Name:     "Gabriel Diallo",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceCached, second.Confidence)
	assert.Equal(t, result.CanonicalID, second.CanonicalID)
}

func TestResolveFuzzyThroughCandidateIDs(t *testing.T) {
	resolver, store := newTestResolver(t, 0)
	seedRatingsPlayer(t, store, "Gabriel Diallo", "209113")

	// Misspelled name: exact lookup misses, but the archive ID derives the
	// ratings candidate and the similarity clears the threshold.
	result, err := resolver.Resolve(Input{
		Source:   models.SourceATPArchive,
		SourceID: "A_209113",
		Name:     "Gabriel Dialo",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceFuzzy, result.Confidence)
	assert.Equal(t, "1", result.CanonicalID)
	require.NotNil(t, result.MatchScore)
	assert.Greater(t, *result.MatchScore, 0.85)

	mapping, err := store.LookupMapping(models.SourceATPArchive, "A_209113")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, models.MatchedFuzzy, mapping.MatchedBy)
	require.NotNil(t, mapping.MatchScore)

	second, err := resolver.Resolve(Input{
		Source:   models.SourceATPArchive,
		SourceID: "A_209113",
		Name:     "Gabriel Dialo",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceCached, second.Confidence)
	assert.Equal(t, result.CanonicalID, second.CanonicalID)
}

func TestResolveAmbiguousTiePrefersFirstCandidate(t *testing.T) {
	// Both tour archives carry the same numeric ID, mapped to two different
	// players with identical display names. The scores tie above threshold,
	// so the winner must be the first candidate in rule order (ATP before
	// WTA), on every run.
	for run := 0; run < 3; run++ {
		resolver, store := newTestResolver(t, 0.85)

		atpID, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
		require.NoError(t, err)
		require.NoError(t, store.RecordMapping(models.ExternalIdentity{
			Source: models.SourceATPArchive, SourceID: "A_209113", PlayerID: atpID, MatchedBy: models.MatchedCreated,
		}))

		wtaID, err := store.UpsertPlayer(PlayerFields{DisplayName: "Gabriel Diallo"})
		require.NoError(t, err)
		require.NoError(t, store.RecordMapping(models.ExternalIdentity{
			Source: models.SourceWTAArchive, SourceID: "W_209113", PlayerID: wtaID, MatchedBy: models.MatchedCreated,
		}))
		require.NotEqual(t, atpID, wtaID)

		// No gender hint, so both tour candidates are generated.
		result, err := resolver.Resolve(Input{
			Source:   models.SourceRatings,
			SourceID: "209113",
			Name:     "Gabriel Dialo",
		})
		require.NoError(t, err)
		assert.Equal(t, ConfidenceFuzzy, result.Confidence)
		assert.Equal(t, strconv.FormatUint(atpID, 10), result.CanonicalID, "run %d", run)
	}
}

func TestResolveThresholdMonotonicity(t *testing.T) {
	// The same input that fuzzy-matches at 0.85 must fall through to
	// CREATED at a stricter threshold, never the reverse.
	strict, store := newTestResolver(t, 0.99)
	seedRatingsPlayer(t, store, "Gabriel Diallo", "209113")

	result, err := strict.Resolve(Input{
		Source:   models.SourceATPArchive,
		SourceID: "A_209113",
		Name:     "Gabriel Dialo",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceCreated, result.Confidence)
	assert.NotEqual(t, "1", result.CanonicalID)
}

func TestResolveCreatesNewPlayer(t *testing.T) {
	resolver, store := newTestResolver(t, 0)

	result, err := resolver.Resolve(Input{
		Source:   models.SourceRatings,
		SourceID: "901234",
		Name:     "Learner Tien",
		Country:  "USA",
		Gender:   "m",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceCreated, result.Confidence)

	canonicalID, err := ParseCanonicalID(result.CanonicalID)
	require.NoError(t, err)
	player, err := store.GetPlayer(canonicalID)
	require.NoError(t, err)
	require.NotNil(t, player)
	assert.Equal(t, "Learner Tien", player.DisplayName)
	assert.Equal(t, "USA", player.Country)

	mapping, err := store.LookupMapping(models.SourceRatings, "901234")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, models.MatchedCreated, mapping.MatchedBy)
}

func TestResolveIdempotence(t *testing.T) {
	resolver, _ := newTestResolver(t, 0)
	input := Input{Source: models.SourceRatings, SourceID: "901234", Name: "Learner Tien"}

	first, err := resolver.Resolve(input)
	require.NoError(t, err)
	second, err := resolver.Resolve(input)
	require.NoError(t, err)

	assert.Equal(t, first.CanonicalID, second.CanonicalID)
	assert.Equal(t, ConfidenceCreated, first.Confidence)
	assert.Equal(t, ConfidenceCached, second.Confidence)
}

func TestResolveMalformedInput(t *testing.T) {
	resolver, _ := newTestResolver(t, 0)

	tests := []struct {
		name  string
		input Input
	}{
		{"empty input", Input{}},
		{"whitespace name only", Input{Name: "   "}},
		{"unknown id and empty name", Input{Source: models.SourceRatings, SourceID: "555000", Name: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := resolver.Resolve(tt.input)
			require.NoError(t, err)
			assert.Equal(t, ConfidenceUnresolved, result.Confidence)
			assert.Empty(t, result.CanonicalID)
			assert.Equal(t, tt.input, result.Input)
		})
	}
}

func TestResolveRankingFeedCommaName(t *testing.T) {
	resolver, store := newTestResolver(t, 0)
	seedRatingsPlayer(t, store, "Gabriel Diallo", "209113")

	// The ranking feed uses "Last, First"; the normalizer reorders it for
	// that source and the exact match fires.
	result, err := resolver.Resolve(Input{
		Source:   models.SourceRankings,
		SourceID: "diallo-g",
		Name:     "Diallo, Gabriel",
	})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceExact, result.Confidence)
	assert.Equal(t, "1", result.CanonicalID)
}
