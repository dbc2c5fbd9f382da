package identity

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jwaldron/tennisiq/internal/models"
)

// PlayerFields carries the writable fields of a canonical player record.
// CanonicalID, when non-zero, targets an existing record for merge.
type PlayerFields struct {
	CanonicalID uint64
	DisplayName string
	Country     string
	Gender      string
}

// Store is the canonical player registry plus the cross-source mapping cache.
// Lookups return (nil, nil) for "not found"; errors mean the storage layer
// itself failed and must not be swallowed.
type Store interface {
	LookupMapping(source models.Source, sourceID string) (*models.ExternalIdentity, error)
	LookupByName(name string, source models.Source) (*models.Player, error)
	GetPlayer(canonicalID uint64) (*models.Player, error)
	UpsertPlayer(fields PlayerFields) (uint64, error)
	RecordMapping(mapping models.ExternalIdentity) error
	AppendAttribute(attr models.PlayerAttribute) error
	AttributesBefore(canonicalID uint64, attributeType string, cutoff time.Time) ([]models.PlayerAttribute, error)
}

// GormStore is the gorm-backed Store used in production (postgres) and in
// tests (in-memory sqlite).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LookupMapping is an exact read of the mapping cache.
func (s *GormStore) LookupMapping(source models.Source, sourceID string) (*models.ExternalIdentity, error) {
	var mapping models.ExternalIdentity
	err := s.db.Where("source = ? AND source_id = ?", source, sourceID).First(&mapping).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup mapping %s/%s: %w", source, sourceID, err)
	}
	return &mapping, nil
}

// LookupByName finds a player by exact case-insensitive display name. When
// source is non-empty the match is restricted to players that already carry
// an identity in that source.
func (s *GormStore) LookupByName(name string, source models.Source) (*models.Player, error) {
	if name == "" {
		return nil, nil
	}

	query := s.db.Model(&models.Player{}).Where("LOWER(display_name) = LOWER(?)", name)
	if source != "" {
		query = query.
			Joins("JOIN external_identities ON external_identities.player_id = players.id").
			Where("external_identities.source = ?", source)
	}

	var player models.Player
	err := query.Order("players.id").First(&player).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup player by name %q: %w", name, err)
	}
	return &player, nil
}

func (s *GormStore) GetPlayer(canonicalID uint64) (*models.Player, error) {
	var player models.Player
	err := s.db.Preload("Identities").First(&player, canonicalID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", canonicalID, err)
	}
	return &player, nil
}

// UpsertPlayer creates a canonical record, or merges fields into the record
// named by CanonicalID. Merge is last-write-wins per field, except that empty
// input never overwrites an existing value. Idempotent; duplicate calls with
// the same fields return the same canonical ID.
func (s *GormStore) UpsertPlayer(fields PlayerFields) (uint64, error) {
	if fields.CanonicalID == 0 {
		player := models.Player{
			DisplayName: fields.DisplayName,
			Country:     fields.Country,
			Gender:      fields.Gender,
		}
		if err := s.db.Create(&player).Error; err != nil {
			return 0, fmt.Errorf("create player %q: %w", fields.DisplayName, err)
		}
		return player.ID, nil
	}

	var player models.Player
	err := s.db.First(&player, fields.CanonicalID).Error
	if err == gorm.ErrRecordNotFound {
		player = models.Player{
			ID:          fields.CanonicalID,
			DisplayName: fields.DisplayName,
			Country:     fields.Country,
			Gender:      fields.Gender,
		}
		if err := s.db.Create(&player).Error; err != nil {
			return 0, fmt.Errorf("create player %d: %w", fields.CanonicalID, err)
		}
		return player.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("upsert player %d: %w", fields.CanonicalID, err)
	}

	updates := map[string]interface{}{}
	if fields.DisplayName != "" {
		updates["display_name"] = fields.DisplayName
	}
	if fields.Country != "" {
		updates["country"] = fields.Country
	}
	if fields.Gender != "" {
		updates["gender"] = fields.Gender
	}
	if len(updates) > 0 {
		if err := s.db.Model(&player).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("update player %d: %w", player.ID, err)
		}
	}
	return player.ID, nil
}

// RecordMapping inserts a mapping cache entry. First writer wins: a pair that
// already has a mapping is left untouched and no error is returned.
func (s *GormStore) RecordMapping(mapping models.ExternalIdentity) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "source_id"}},
		DoNothing: true,
	}).Create(&mapping).Error
	if err != nil {
		return fmt.Errorf("record mapping %s/%s: %w", mapping.Source, mapping.SourceID, err)
	}
	return nil
}

// AppendAttribute appends to a player's attribute time series.
func (s *GormStore) AppendAttribute(attr models.PlayerAttribute) error {
	if err := s.db.Create(&attr).Error; err != nil {
		return fmt.Errorf("append attribute %s for player %d: %w", attr.AttributeType, attr.PlayerID, err)
	}
	return nil
}

// AttributesBefore returns the attribute series at or before cutoff, newest
// first. Rows sharing a date come back in reverse insertion order, so the
// later-inserted row wins the same-day tie.
func (s *GormStore) AttributesBefore(canonicalID uint64, attributeType string, cutoff time.Time) ([]models.PlayerAttribute, error) {
	var attrs []models.PlayerAttribute
	err := s.db.
		Where("player_id = ? AND attribute_type = ? AND date <= ?", canonicalID, attributeType, cutoff).
		Order("date DESC").
		Order("id DESC").
		Find(&attrs).Error
	if err != nil {
		return nil, fmt.Errorf("attributes before %s for player %d: %w", cutoff.Format("2006-01-02"), canonicalID, err)
	}
	return attrs, nil
}
