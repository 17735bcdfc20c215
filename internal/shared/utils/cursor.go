package utils

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/errors"
)

// Cursor is the opaque position after the last item of a page. SortKey holds
// the ordering column of that item, RFC 3339 for timestamps.
type Cursor struct {
	SortKey string `json:"k"`
	ID      string `json:"id"`
}

func (c Cursor) IsZero() bool {
	return c.ID == ""
}

// Time decodes SortKey as an RFC 3339 timestamp.
func (c Cursor) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.SortKey)
}

// EncodeCursor renders a cursor as URL-safe base64 JSON.
func EncodeCursor(c Cursor) string {
	if c.IsZero() {
		return ""
	}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// TimeCursor builds a cursor keyed on a timestamp.
func TimeCursor(t time.Time, id string) string {
	return EncodeCursor(Cursor{SortKey: t.UTC().Format(time.RFC3339Nano), ID: id})
}

// DecodeCursor parses a cursor produced by EncodeCursor. An empty string is
// the first page.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, errors.NewValidationError("invalid cursor")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return Cursor{}, errors.NewValidationError("invalid cursor")
	}
	return c, nil
}

// ParseLimit reads the limit query parameter, clamped to [1, MaxPageSize].
func ParseLimit(c *gin.Context) int {
	limit := constants.DefaultPageSize
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	return limit
}
