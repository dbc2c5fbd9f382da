package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// Source identifies which external data source an identifier came from.
type Source string

const (
	SourceRatings    Source = "ratings"     // commercial rating provider, numeric IDs
	SourceATPArchive Source = "atp_archive" // historical match archive, ATP tour
	SourceWTAArchive Source = "wta_archive" // historical match archive, WTA tour
	SourceRankings   Source = "rankings"    // weekly ranking feed, keyed by name
)

// AllSources lists every source the resolver knows about.
var AllSources = []Source{SourceRatings, SourceATPArchive, SourceWTAArchive, SourceRankings}

// MatchMethod records how an external identity was linked to a canonical player.
type MatchMethod string

const (
	MatchedCached  MatchMethod = "cached"
	MatchedExact   MatchMethod = "exact"
	MatchedFuzzy   MatchMethod = "fuzzy"
	MatchedCreated MatchMethod = "created"
)

// Player is the canonical player record. The autoincrement ID is the canonical
// identifier; every external source maps into it. Players are never deleted.
type Player struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName string    `gorm:"size:128;not null;index" json:"display_name"`
	Country     string    `gorm:"size:64" json:"country"`
	Gender      string    `gorm:"size:8" json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Identities []ExternalIdentity `gorm:"foreignKey:PlayerID" json:"identities,omitempty"`
}

func (Player) TableName() string {
	return "players"
}

// CanonicalID renders the canonical identifier in its interface form.
func (p *Player) CanonicalID() string {
	return strconv.FormatUint(p.ID, 10)
}

// ExternalIdentity maps one source's identifier to a canonical player.
// A (source, source_id) pair is written once and never rewritten; a later
// resolution of the same pair is a cache hit.
type ExternalIdentity struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Source      Source      `gorm:"size:32;not null;uniqueIndex:uq_source_identity" json:"source"`
	SourceID    string      `gorm:"size:64;not null;uniqueIndex:uq_source_identity" json:"source_id"`
	PlayerID    uint64      `gorm:"not null;index" json:"player_id"`
	MatchedBy   MatchMethod `gorm:"size:16;not null" json:"matched_by"`
	MatchScore  *float64    `json:"match_score"` // only set for fuzzy matches
	CountryHint string      `gorm:"size:64" json:"country_hint"`
	CreatedAt   time.Time   `json:"recorded_at"`
}

func (ExternalIdentity) TableName() string {
	return "external_identities"
}

// PlayerAttribute is one point in a player's attribute time series
// (ranking, rating). Append-only; same-day corrections are appended and the
// later insert wins on read.
type PlayerAttribute struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID      uint64         `gorm:"not null;index:idx_player_attr" json:"player_id"`
	AttributeType string         `gorm:"size:32;not null;index:idx_player_attr" json:"attribute_type"`
	Date          time.Time      `gorm:"type:date;not null;index:idx_player_attr" json:"date"`
	Value         float64        `gorm:"not null" json:"value"`
	Metadata      datatypes.JSON `json:"metadata"` // e.g. {"points": 3085, "tour": "atp"}
	CreatedAt     time.Time      `json:"created_at"`
}

func (PlayerAttribute) TableName() string {
	return "player_attributes"
}

// Well-known attribute types.
const (
	AttributeRanking = "ranking"
	AttributeRating  = "rating"
)
