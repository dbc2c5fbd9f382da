package identity

import (
	"time"
)

// AttributeValue is the answer to "what was this attribute as of that date".
type AttributeValue struct {
	Value    float64   `json:"value"`
	AsOfDate time.Time `json:"as_of_date"`
}

// TemporalResolver answers point-in-time attribute questions against the
// append-only attribute series in the Store.
type TemporalResolver struct {
	store Store
}

func NewTemporalResolver(store Store) *TemporalResolver {
	return &TemporalResolver{store: store}
}

// AttributeAsOf returns the latest attribute value at or before targetDate,
// or nil when there is none or the latest one is older than maxStalenessDays.
// Staleness is measured in whole days; a record dated exactly on targetDate
// has staleness 0 and is always accepted. When two records share a date the
// later-inserted one wins.
//
// A nil result is the "no reliable value" answer, not an error; errors are
// storage failures only.
func (t *TemporalResolver) AttributeAsOf(canonicalID uint64, attributeType string, targetDate time.Time, maxStalenessDays int) (*AttributeValue, error) {
	target := truncateToDay(targetDate)

	attrs, err := t.store.AttributesBefore(canonicalID, attributeType, target)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, nil
	}

	// AttributesBefore orders by date desc then insertion order desc, so the
	// first row is the freshest value and the same-day tie-break is already
	// applied.
	latest := attrs[0]
	recordDate := truncateToDay(latest.Date)

	staleDays := int(target.Sub(recordDate).Hours() / 24)
	if staleDays > maxStalenessDays {
		return nil, nil
	}

	return &AttributeValue{Value: latest.Value, AsOfDate: recordDate}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
