package identity

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/models"
)

// Confidence classifies how a resolution was decided.
type Confidence string

const (
	ConfidenceCached     Confidence = "CACHED"
	ConfidenceExact      Confidence = "EXACT"
	ConfidenceFuzzy      Confidence = "FUZZY"
	ConfidenceCreated    Confidence = "CREATED"
	ConfidenceUnresolved Confidence = "UNRESOLVED"
)

// Input is one raw record handed in by an importer.
type Input struct {
	Source   models.Source `json:"source"`
	SourceID string        `json:"source_id"`
	Name     string        `json:"name"`
	Country  string        `json:"country"`
	Gender   string        `json:"gender"`
}

// Result is the outcome of resolving one Input. CanonicalID is empty only
// when Confidence is UNRESOLVED; the original input is echoed back so batch
// callers can report per-record outcomes.
type Result struct {
	CanonicalID string     `json:"canonical_id"`
	Confidence  Confidence `json:"confidence"`
	MatchScore  *float64   `json:"match_score"`
	Input       Input      `json:"input"`
}

// DefaultFuzzyThreshold is the minimum similarity score for a fuzzy match.
const DefaultFuzzyThreshold = 0.85

var canonicalIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Resolver links raw source records to canonical player identities. It is
// stateless per call; the Store is the only shared state, so one Resolver can
// be used from many goroutines as long as the Store is safe for that.
type Resolver struct {
	store     Store
	scorer    Scorer
	threshold float64
	logger    *logrus.Logger
}

func NewResolver(store Store, scorer Scorer, threshold float64, logger *logrus.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		store:     store,
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve runs the lookup pipeline in strict order, short-circuiting at the
// first success: canonical passthrough, mapping cache, exact name, fuzzy
// candidate, create-new. Steps that discover or create a mapping persist it,
// so a second resolution of the same (source, source_id) is a cache hit.
//
// Soft failures (nothing found, malformed input) come back in the Result;
// a non-nil error always means the store itself failed.
func (r *Resolver) Resolve(in Input) (Result, error) {
	// Step 1: an input with no source is a canonical identifier being
	// passed back in; accept it without touching the store.
	if in.Source == "" && canonicalIDPattern.MatchString(in.SourceID) {
		return Result{CanonicalID: in.SourceID, Confidence: ConfidenceCached, Input: in}, nil
	}

	// Step 2: mapping cache.
	if in.Source != "" && in.SourceID != "" {
		mapping, err := r.store.LookupMapping(in.Source, in.SourceID)
		if err != nil {
			return Result{}, err
		}
		if mapping != nil {
			return Result{
				CanonicalID: strconv.FormatUint(mapping.PlayerID, 10),
				Confidence:  ConfidenceCached,
				MatchScore:  mapping.MatchScore,
				Input:       in,
			}, nil
		}
	}

	normalized := NormalizeName(in.Name, NormalizeOptions{ReorderComma: in.Source == models.SourceRankings})
	if normalized == "" {
		// Nothing left to match on.
		return Result{Confidence: ConfidenceUnresolved, Input: in}, nil
	}

	// Step 3: exact case-insensitive name match.
	player, err := r.store.LookupByName(normalized, "")
	if err != nil {
		return Result{}, err
	}
	if player != nil {
		if err := r.recordMapping(in, player.ID, models.MatchedExact, nil); err != nil {
			return Result{}, err
		}
		return Result{CanonicalID: player.CanonicalID(), Confidence: ConfidenceExact, Input: in}, nil
	}

	// Step 4: fuzzy match against the candidate set derived from source
	// naming conventions. Never a full-table scan.
	best, bestScore, err := r.bestCandidate(in, normalized)
	if err != nil {
		return Result{}, err
	}
	if best != nil && bestScore >= r.threshold {
		score := bestScore
		if err := r.recordMapping(in, best.ID, models.MatchedFuzzy, &score); err != nil {
			return Result{}, err
		}
		return Result{
			CanonicalID: best.CanonicalID(),
			Confidence:  ConfidenceFuzzy,
			MatchScore:  &score,
			Input:       in,
		}, nil
	}

	// Step 5: nobody matched; register a new canonical player.
	canonicalID, err := r.store.UpsertPlayer(PlayerFields{
		DisplayName: in.Name,
		Country:     in.Country,
		Gender:      in.Gender,
	})
	if err != nil {
		return Result{}, err
	}
	if err := r.recordMapping(in, canonicalID, models.MatchedCreated, nil); err != nil {
		return Result{}, err
	}
	return Result{
		CanonicalID: strconv.FormatUint(canonicalID, 10),
		Confidence:  ConfidenceCreated,
		Input:       in,
	}, nil
}

// bestCandidate scores every candidate ID that already has a mapping and
// returns the best-scoring player. Ties keep the earlier candidate in
// generation order; a tie at or above the threshold is logged for audit.
func (r *Resolver) bestCandidate(in Input, normalized string) (*models.Player, float64, error) {
	var best *models.Player
	bestScore := -1.0
	tied := false

	for _, ref := range GenerateCandidates(in.Source, in.SourceID, in.Gender) {
		mapping, err := r.store.LookupMapping(ref.Source, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		if mapping == nil {
			continue
		}
		candidate, err := r.store.GetPlayer(mapping.PlayerID)
		if err != nil {
			return nil, 0, err
		}
		if candidate == nil {
			continue
		}

		score := r.scorer.Score(normalized, NormalizeName(candidate.DisplayName, NormalizeOptions{}))
		if score > bestScore {
			best = candidate
			bestScore = score
			tied = false
		} else if score == bestScore {
			tied = true
		}
	}

	if tied && bestScore >= r.threshold {
		r.logger.WithFields(logrus.Fields{
			"source":    in.Source,
			"source_id": in.SourceID,
			"name":      in.Name,
			"score":     bestScore,
		}).Warn("ambiguous fuzzy match, keeping first candidate in generation order")
	}

	return best, bestScore, nil
}

func (r *Resolver) recordMapping(in Input, canonicalID uint64, method models.MatchMethod, score *float64) error {
	if in.Source == "" || in.SourceID == "" {
		return nil
	}
	return r.store.RecordMapping(models.ExternalIdentity{
		Source:      in.Source,
		SourceID:    in.SourceID,
		PlayerID:    canonicalID,
		MatchedBy:   method,
		MatchScore:  score,
		CountryHint: in.Country,
	})
}

// ParseCanonicalID converts the interface form of a canonical identifier back
// to its storage key.
func ParseCanonicalID(id string) (uint64, error) {
	if !canonicalIDPattern.MatchString(id) {
		return 0, fmt.Errorf("invalid canonical id %q", id)
	}
	return strconv.ParseUint(id, 10, 64)
}
