package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
)

// AttributeAnswer is the API shape of a temporal lookup. Both fields are nil
// when no reliable value exists; an unknown never renders as a zero.
type AttributeAnswer struct {
	Value    *float64 `json:"value"`
	AsOfDate *string  `json:"as_of_date"`
}

// PlayerSnapshot is a player's state as of a given date.
type PlayerSnapshot struct {
	Player  *models.Player  `json:"player"`
	Date    string          `json:"date"`
	Ranking AttributeAnswer `json:"ranking"`
	Rating  AttributeAnswer `json:"rating"`
}

// AnalyticsService answers point-in-time questions over resolved identities,
// with a read-through redis cache in front of the attribute series.
type AnalyticsService struct {
	store    identity.Store
	temporal *identity.TemporalResolver
	cache    *CacheService
	logger   *logrus.Logger
}

func NewAnalyticsService(store identity.Store, cache *CacheService, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		temporal: identity.NewTemporalResolver(store),
		cache:    cache,
		logger:   logger,
	}
}

// GetPlayer returns the canonical record with its external identities.
func (s *AnalyticsService) GetPlayer(canonicalID string) (*models.Player, error) {
	id, err := identity.ParseCanonicalID(canonicalID)
	if err != nil {
		return nil, nil
	}
	return s.store.GetPlayer(id)
}

// AttributeAsOf answers "what was this attribute on that date" within the
// staleness window. Historical answers are immutable, so cache hits are safe
// indefinitely; a day is plenty.
func (s *AnalyticsService) AttributeAsOf(ctx context.Context, canonicalID, attributeType string, targetDate time.Time, maxStalenessDays int) (AttributeAnswer, error) {
	answer := AttributeAnswer{}

	id, err := identity.ParseCanonicalID(canonicalID)
	if err != nil {
		return answer, nil
	}

	dateKey := targetDate.Format("2006-01-02")
	cacheKey := AttributeCacheKey(canonicalID, fmt.Sprintf("%s:%d", attributeType, maxStalenessDays), dateKey)
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &answer); err == nil {
			return answer, nil
		}
	}

	value, err := s.temporal.AttributeAsOf(id, attributeType, targetDate, maxStalenessDays)
	if err != nil {
		return AttributeAnswer{}, err
	}
	if value != nil {
		asOf := value.AsOfDate.Format("2006-01-02")
		answer.Value = &value.Value
		answer.AsOfDate = &asOf
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, answer, 24*time.Hour); err != nil {
			s.logger.Warnf("Failed to cache attribute answer: %v", err)
		}
	}
	return answer, nil
}

// Snapshot collects ranking and rating as of a date in one answer.
func (s *AnalyticsService) Snapshot(ctx context.Context, canonicalID string, targetDate time.Time, maxStalenessDays int) (*PlayerSnapshot, error) {
	cacheKey := SnapshotCacheKey(canonicalID, fmt.Sprintf("%s:%d", targetDate.Format("2006-01-02"), maxStalenessDays))
	if s.cache != nil {
		var cached PlayerSnapshot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	player, err := s.GetPlayer(canonicalID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, nil
	}

	ranking, err := s.AttributeAsOf(ctx, canonicalID, models.AttributeRanking, targetDate, maxStalenessDays)
	if err != nil {
		return nil, err
	}
	rating, err := s.AttributeAsOf(ctx, canonicalID, models.AttributeRating, targetDate, maxStalenessDays)
	if err != nil {
		return nil, err
	}

	snapshot := &PlayerSnapshot{
		Player:  player,
		Date:    targetDate.Format("2006-01-02"),
		Ranking: ranking,
		Rating:  rating,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snapshot, 24*time.Hour); err != nil {
			s.logger.Warnf("Failed to cache snapshot: %v", err)
		}
	}
	return snapshot, nil
}
