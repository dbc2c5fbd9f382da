package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/pkg/database"
)

// RecordOutcome is the per-record result of a batch resolution. Error is set
// only for hard storage failures; soft outcomes (UNRESOLVED, CREATED) are
// normal results.
type RecordOutcome struct {
	Index  int             `json:"index"`
	Result identity.Result `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// BatchResult summarizes one batch resolution run.
type BatchResult struct {
	JobID    string          `json:"job_id"`
	Outcomes []RecordOutcome `json:"outcomes"`
	Resolved int             `json:"resolved"`
	Failed   int             `json:"failed"`
}

// RankingEntry is one row of a weekly ranking snapshot.
type RankingEntry struct {
	Name    string  `json:"name"`
	Rank    float64 `json:"rank"`
	Points  float64 `json:"points"`
	Country string  `json:"country"`
}

// RatedRecord is one player record from the rating provider, carrying the
// dated rating alongside the raw identity fields.
type RatedRecord struct {
	Input  identity.Input `json:"input"`
	Rating float64        `json:"rating"`
	Date   time.Time      `json:"date"`
}

// ImporterService resolves batches of raw source records against the identity
// store. Workers resolve independent records concurrently; every store write
// goes through a single writer goroutine to keep the storage layer free of
// write contention.
type ImporterService struct {
	db      *database.DB
	store   identity.Store
	scorer  identity.Scorer
	logger  *logrus.Logger
	workers int

	threshold float64
}

func NewImporterService(db *database.DB, store identity.Store, scorer identity.Scorer, threshold float64, workers int, logger *logrus.Logger) *ImporterService {
	if workers < 1 {
		workers = 1
	}
	return &ImporterService{
		db:        db,
		store:     store,
		scorer:    scorer,
		logger:    logger,
		workers:   workers,
		threshold: threshold,
	}
}

// ResolveBatch resolves every record, reports per-record outcomes and
// persists the audit row. One record's storage failure never aborts the rest
// of the batch.
func (s *ImporterService) ResolveBatch(source models.Source, records []identity.Input) BatchResult {
	startedAt := time.Now().UTC()
	result := s.resolveBatch(records)
	s.recordJob(source, startedAt, result)
	return result
}

// resolveBatch runs the worker pool. The audit row is the caller's job, so
// imports that keep writing after resolution can record final counts.
func (s *ImporterService) resolveBatch(records []identity.Input) BatchResult {
	jobID := uuid.NewString()

	writer := newSerializedStore(s.store)
	defer writer.Close()

	resolver := identity.NewResolver(writer, s.scorer, s.threshold, s.logger)

	outcomes := make([]RecordOutcome, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result, err := resolver.Resolve(records[idx])
				outcome := RecordOutcome{Index: idx, Result: result}
				if err != nil {
					outcome.Error = err.Error()
					s.logger.WithFields(logrus.Fields{
						"job_id": jobID,
						"index":  idx,
						"source": records[idx].Source,
					}).Errorf("record resolution failed: %v", err)
				}
				outcomes[idx] = outcome
			}
		}()
	}

	for idx := range records {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	result := BatchResult{JobID: jobID, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Error != "" {
			result.Failed++
		} else if o.Result.Confidence != identity.ConfidenceUnresolved {
			result.Resolved++
		}
	}
	return result
}

// ImportRankingSnapshot resolves each ranked player by name and appends the
// dated ranking attribute. The snapshot date is explicit so re-imports are
// reproducible. The audit row is recorded only after the appends, so append
// failures show up in the persisted counts.
func (s *ImporterService) ImportRankingSnapshot(date time.Time, entries []RankingEntry) BatchResult {
	startedAt := time.Now().UTC()

	records := make([]identity.Input, len(entries))
	for i, e := range entries {
		records[i] = identity.Input{
			Source:   models.SourceRankings,
			SourceID: identity.NormalizeName(e.Name, identity.NormalizeOptions{ReorderComma: true}),
			Name:     e.Name,
			Country:  e.Country,
		}
	}

	result := s.resolveBatch(records)

	writer := newSerializedStore(s.store)
	defer writer.Close()

	for i, outcome := range result.Outcomes {
		if outcome.Error != "" || outcome.Result.Confidence == identity.ConfidenceUnresolved {
			continue
		}
		canonicalID, err := identity.ParseCanonicalID(outcome.Result.CanonicalID)
		if err != nil {
			continue
		}
		meta, _ := json.Marshal(map[string]float64{"points": entries[i].Points})
		if err := writer.AppendAttribute(models.PlayerAttribute{
			PlayerID:      canonicalID,
			AttributeType: models.AttributeRanking,
			Date:          date,
			Value:         entries[i].Rank,
			Metadata:      datatypes.JSON(meta),
		}); err != nil {
			s.logger.Errorf("Failed to append ranking for player %d: %v", canonicalID, err)
			result.Outcomes[i].Error = err.Error()
			result.Failed++
		}
	}

	s.recordJob(models.SourceRankings, startedAt, result)
	return result
}

// ImportRatedPlayers resolves the rating provider's player list and appends
// each player's dated rating attribute.
func (s *ImporterService) ImportRatedPlayers(players []RatedRecord) BatchResult {
	startedAt := time.Now().UTC()

	records := make([]identity.Input, len(players))
	for i, p := range players {
		records[i] = p.Input
	}

	result := s.resolveBatch(records)

	writer := newSerializedStore(s.store)
	defer writer.Close()

	for i, outcome := range result.Outcomes {
		if outcome.Error != "" || outcome.Result.Confidence == identity.ConfidenceUnresolved {
			continue
		}
		canonicalID, err := identity.ParseCanonicalID(outcome.Result.CanonicalID)
		if err != nil {
			continue
		}
		if err := writer.AppendAttribute(models.PlayerAttribute{
			PlayerID:      canonicalID,
			AttributeType: models.AttributeRating,
			Date:          players[i].Date,
			Value:         players[i].Rating,
		}); err != nil {
			s.logger.Errorf("Failed to append rating for player %d: %v", canonicalID, err)
			result.Outcomes[i].Error = err.Error()
			result.Failed++
		}
	}

	s.recordJob(models.SourceRatings, startedAt, result)
	return result
}

func (s *ImporterService) recordJob(source models.Source, startedAt time.Time, result BatchResult) {
	if s.db == nil {
		return
	}

	var failures []RecordOutcome
	unresolved := 0
	created := 0
	for _, o := range result.Outcomes {
		if o.Error != "" {
			failures = append(failures, o)
		}
		switch o.Result.Confidence {
		case identity.ConfidenceUnresolved:
			unresolved++
		case identity.ConfidenceCreated:
			created++
		}
	}

	status := "completed"
	if result.Failed > 0 {
		status = "failed"
	}

	failureJSON, _ := json.Marshal(failures)
	completedAt := time.Now().UTC()
	job := models.ImportJob{
		ID:           result.JobID,
		Source:       source,
		Status:       status,
		TotalRecords: len(result.Outcomes),
		Resolved:     result.Resolved,
		Created:      created,
		Unresolved:   unresolved,
		Failed:       result.Failed,
		Failures:     datatypes.JSON(failureJSON),
		StartedAt:    startedAt,
		CompletedAt:  &completedAt,
	}
	if err := s.db.Create(&job).Error; err != nil {
		s.logger.Errorf("Failed to record import job %s: %v", result.JobID, err)
	}
}
