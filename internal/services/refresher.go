package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/internal/providers"
)

// RatingsFetcher pulls the rating provider's current player list.
type RatingsFetcher interface {
	FetchRatedPlayers(ctx context.Context) ([]providers.RatedPlayer, error)
}

// ArchiveFetcher pulls one tour's player list from the match archive.
type ArchiveFetcher interface {
	FetchPlayers(ctx context.Context, tour providers.Tour) ([]identity.Input, error)
}

// RankingsFetcher pulls the latest weekly ranking snapshot.
type RankingsFetcher interface {
	FetchSnapshot(ctx context.Context) (time.Time, []providers.RankingRow, error)
}

// RefreshService pulls fresh data from an upstream source and runs it through
// the importer. Each refresh is one import job.
type RefreshService struct {
	ratings  RatingsFetcher
	archive  ArchiveFetcher
	rankings RankingsFetcher
	importer *ImporterService
	logger   *logrus.Logger
}

func NewRefreshService(ratings RatingsFetcher, archive ArchiveFetcher, rankings RankingsFetcher, importer *ImporterService, logger *logrus.Logger) *RefreshService {
	return &RefreshService{
		ratings:  ratings,
		archive:  archive,
		rankings: rankings,
		importer: importer,
		logger:   logger,
	}
}

// Refresh fetches the named source and imports what it returns. Fetch errors
// abort before anything is written; import outcomes are per-record as usual.
func (s *RefreshService) Refresh(ctx context.Context, source models.Source) (BatchResult, error) {
	s.logger.Infof("Refreshing source %s", source)

	switch source {
	case models.SourceRatings:
		rated, err := s.ratings.FetchRatedPlayers(ctx)
		if err != nil {
			return BatchResult{}, fmt.Errorf("refresh %s: %w", source, err)
		}
		records := make([]RatedRecord, len(rated))
		for i, p := range rated {
			records[i] = RatedRecord{Input: p.Input, Rating: p.Rating, Date: p.Date}
		}
		return s.importer.ImportRatedPlayers(records), nil

	case models.SourceATPArchive, models.SourceWTAArchive:
		tour := providers.TourATP
		if source == models.SourceWTAArchive {
			tour = providers.TourWTA
		}
		inputs, err := s.archive.FetchPlayers(ctx, tour)
		if err != nil {
			return BatchResult{}, fmt.Errorf("refresh %s: %w", source, err)
		}
		return s.importer.ResolveBatch(source, inputs), nil

	case models.SourceRankings:
		week, rows, err := s.rankings.FetchSnapshot(ctx)
		if err != nil {
			return BatchResult{}, fmt.Errorf("refresh %s: %w", source, err)
		}
		entries := make([]RankingEntry, len(rows))
		for i, r := range rows {
			entries[i] = RankingEntry{Name: r.Name, Rank: r.Rank, Points: r.Points, Country: r.Country}
		}
		return s.importer.ImportRankingSnapshot(week, entries), nil
	}

	return BatchResult{}, fmt.Errorf("unknown source %q", source)
}
