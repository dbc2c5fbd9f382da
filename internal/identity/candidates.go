package identity

import (
	"regexp"
	"strings"

	"github.com/jwaldron/tennisiq/internal/models"
)

// ExternalRef names an identifier in one external source's scheme.
type ExternalRef struct {
	Source models.Source
	ID     string
}

var numericSuffix = regexp.MustCompile(`([0-9]+)$`)

// numericPart extracts the trailing numeric run from a source ID, e.g.
// "A_209113" -> "209113". Empty when the ID carries no number.
func numericPart(id string) string {
	return numericSuffix.FindString(id)
}

// candidateRule derives possible identifiers in one target source from an
// identifier in another. Rules encode the sources' naming conventions; they
// produce candidates to check, not confirmed matches.
type candidateRule struct {
	from     models.Source
	to       models.Source
	generate func(sourceID, gender string) []string
}

// The archive keys players per tour as the rating provider's numeric ID
// behind a tour prefix ("A_" for ATP, "W_" for WTA). The ranking feed is
// name-keyed and has no derivable ID scheme, so no rule targets it.
var candidateRules = []candidateRule{
	{
		from: models.SourceRatings,
		to:   models.SourceATPArchive,
		generate: func(id, gender string) []string {
			if numericPart(id) == "" || strings.EqualFold(gender, "f") {
				return nil
			}
			return []string{"A_" + numericPart(id)}
		},
	},
	{
		from: models.SourceRatings,
		to:   models.SourceWTAArchive,
		generate: func(id, gender string) []string {
			if numericPart(id) == "" || strings.EqualFold(gender, "m") {
				return nil
			}
			return []string{"W_" + numericPart(id)}
		},
	},
	{
		from: models.SourceATPArchive,
		to:   models.SourceRatings,
		generate: func(id, _ string) []string {
			if n := numericPart(id); n != "" {
				return []string{n}
			}
			return nil
		},
	},
	{
		from: models.SourceWTAArchive,
		to:   models.SourceRatings,
		generate: func(id, _ string) []string {
			if n := numericPart(id); n != "" {
				return []string{n}
			}
			return nil
		},
	},
	// Tour prefixes get mixed up upstream often enough that the opposite
	// tour's ID is worth checking.
	{
		from: models.SourceATPArchive,
		to:   models.SourceWTAArchive,
		generate: func(id, _ string) []string {
			if n := numericPart(id); n != "" {
				return []string{"W_" + n}
			}
			return nil
		},
	},
	{
		from: models.SourceWTAArchive,
		to:   models.SourceATPArchive,
		generate: func(id, _ string) []string {
			if n := numericPart(id); n != "" {
				return []string{"A_" + n}
			}
			return nil
		},
	},
}

// GenerateCandidates enumerates identifiers that might refer to the same
// player in other sources, given the source's naming conventions. The result
// is de-duplicated and ordered by rule declaration, which is the tie-break
// order for equal fuzzy scores downstream.
func GenerateCandidates(source models.Source, sourceID, gender string) []ExternalRef {
	if sourceID == "" {
		return nil
	}

	seen := make(map[ExternalRef]struct{})
	var out []ExternalRef
	for _, rule := range candidateRules {
		if rule.from != source {
			continue
		}
		for _, id := range rule.generate(sourceID, gender) {
			ref := ExternalRef{Source: rule.to, ID: id}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}
