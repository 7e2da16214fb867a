package roster

import (
	"context"

	"github.com/rs/zerolog"

	"teachers_portal/backend/internal/gradebook"
)

// Finder is the read side of Store.
type Finder interface {
	Find(ctx context.Context, q Query) ([]Record, error)
}

// Source feeds gradebook sessions from the student collection.
type Source struct {
	finder Finder
	logger zerolog.Logger
}

// NewSource creates a roster source over finder.
func NewSource(finder Finder, logger zerolog.Logger) *Source {
	return &Source{
		finder: finder,
		logger: logger.With().Str("component", "roster").Logger(),
	}
}

// LoadRoster returns the class as gradebook entries. A failed lookup is
// logged and yields an empty roster.
func (s *Source) LoadRoster(ctx context.Context, q Query) []gradebook.RosterEntry {
	records, err := s.finder.Find(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).
			Int("grade_level", int(q.GradeLevel)).
			Str("section", q.Section).
			Msg("failed to load students")
		return []gradebook.RosterEntry{}
	}

	entries := make([]gradebook.RosterEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, gradebook.RosterEntry{ID: r.ID, Name: r.Name()})
	}
	return entries
}
