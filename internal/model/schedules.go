package model

import (
	"time"

	"github.com/lib/pq"
)

// Schedule is an ordered set of content references played on displays.
// References are non-owning; deleted content is skipped when populated.
type Schedule struct {
	ID         int           `db:"id"          json:"id"`
	Name       string        `db:"name"        json:"name"`
	ContentIDs pq.Int64Array `db:"content_ids" json:"contentIds"`
	Rule       *string       `db:"rule"        json:"rule,omitempty"`
	UserID     int           `db:"user_id"     json:"user"`
	CreatedAt  time.Time     `db:"created_at"  json:"createdAt"`
	Contents   []Content     `db:"-"           json:"contents,omitempty"`
}

func (s *Schedule) Validate() error {
	verr := &ValidationError{}
	if s.Name == "" {
		verr.add("name", "Name is required")
	}
	if len(s.ContentIDs) == 0 {
		verr.add("contentIds", "Content IDs are required")
	}
	for _, id := range s.ContentIDs {
		if id <= 0 {
			verr.add("contentIds", "Content IDs must be positive")
			break
		}
	}
	return verr.orNil()
}
