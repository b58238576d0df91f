package ops

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	RunID      string // optional filter
	Feature    string // optional filter, compared normalized
	FailedOnly bool
	Limit      int // default: 20, max: 100
	Offset     int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []artifact.Artifact `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// List retrieves ledger entries, newest first, with pagination.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	limit, offset := pageBounds(input.Limit, input.Offset)

	filter := db.ListFilter{
		RunID:      strings.TrimSpace(input.RunID),
		Feature:    input.Feature,
		FailedOnly: input.FailedOnly,
	}
	items, total, err := db.List(database, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []artifact.Artifact{}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
