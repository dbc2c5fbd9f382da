package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwaldron/tennisiq/internal/models"
)

func TestGenerateCandidates(t *testing.T) {
	tests := []struct {
		name     string
		source   models.Source
		sourceID string
		gender   string
		expected []ExternalRef
	}{
		{
			name:     "ratings id fans out to both tours when gender unknown",
			source:   models.SourceRatings,
			sourceID: "209113",
			expected: []ExternalRef{
				{Source: models.SourceATPArchive, ID: "A_209113"},
				{Source: models.SourceWTAArchive, ID: "W_209113"},
			},
		},
		{
			name:     "ratings id with male gender hint skips WTA",
			source:   models.SourceRatings,
			sourceID: "209113",
			gender:   "m",
			expected: []ExternalRef{
				{Source: models.SourceATPArchive, ID: "A_209113"},
			},
		},
		{
			name:     "ratings id with female gender hint skips ATP",
			source:   models.SourceRatings,
			sourceID: "217512",
			gender:   "f",
			expected: []ExternalRef{
				{Source: models.SourceWTAArchive, ID: "W_217512"},
			},
		},
		{
			name:     "atp archive id maps back to ratings and across tours",
			source:   models.SourceATPArchive,
			sourceID: "A_209113",
			expected: []ExternalRef{
				{Source: models.SourceRatings, ID: "209113"},
				{Source: models.SourceWTAArchive, ID: "W_209113"},
			},
		},
		{
			name:     "wta archive id maps back to ratings and across tours",
			source:   models.SourceWTAArchive,
			sourceID: "W_217512",
			expected: []ExternalRef{
				{Source: models.SourceRatings, ID: "217512"},
				{Source: models.SourceATPArchive, ID: "A_217512"},
			},
		},
		{
			name:     "ranking feed has no derivable ids",
			source:   models.SourceRankings,
			sourceID: "gabriel diallo",
			expected: nil,
		},
		{
			name:     "non-numeric id produces nothing",
			source:   models.SourceRatings,
			sourceID: "unknown",
			expected: nil,
		},
		{
			name:     "empty id produces nothing",
			source:   models.SourceRatings,
			sourceID: "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateCandidates(tt.source, tt.sourceID, tt.gender))
		})
	}
}

func TestGenerateCandidatesDeterministicOrder(t *testing.T) {
	first := GenerateCandidates(models.SourceRatings, "209113", "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GenerateCandidates(models.SourceRatings, "209113", ""))
	}
}
