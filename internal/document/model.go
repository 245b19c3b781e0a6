package document

import (
	"errors"
	"time"

	"cvcraft/internal/usage"
)

var ErrUnknownResource = errors.New("unknown document type")

// Document is a resume or a cover letter; both share one shape.
type Document struct {
	ID        int            `db:"id" json:"id"`
	UserID    int            `db:"user_id" json:"user_id"`
	Kind      usage.Resource `db:"-" json:"kind"`
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"max=100000"`
}

func tableFor(r usage.Resource) (string, error) {
	switch r {
	case usage.ResourceResume:
		return "resumes", nil
	case usage.ResourceCoverLetter:
		return "cover_letters", nil
	}
	return "", ErrUnknownResource
}
