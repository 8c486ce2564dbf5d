// Package pagination implements keyset pagination over the memories table.
//
// Pages are ordered by (created_at DESC, id DESC). A cursor names the last
// record the client has seen; the next page contains only records strictly
// after that position — older created_at, or equal created_at with a smaller
// id. Filters (location, date bucket) are conjunctive with the cursor.
package pagination

import (
	"strconv"
	"time"

	"memoir/internal/server/database"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Cursor is the ordering key of the last record on a page.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

// DateBucket selects one fixed calendar day relative to the server's
// current date.
type DateBucket string

const (
	BucketToday     DateBucket = "TODAY"
	BucketYesterday DateBucket = "YESTERDAY"
	BucketDBY       DateBucket = "DBY" // day before yesterday
)

// ParseBucket validates a raw date-bucket value.
func ParseBucket(s string) (DateBucket, bool) {
	switch DateBucket(s) {
	case BucketToday, BucketYesterday, BucketDBY:
		return DateBucket(s), true
	}
	return "", false
}

// Range returns the [from, to) bounds of the bucket's calendar day,
// computed from midnight in now's location.
func (b DateBucket) Range(now time.Time) (from, to time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch b {
	case BucketToday:
		return midnight, midnight.AddDate(0, 0, 1)
	case BucketYesterday:
		return midnight.AddDate(0, 0, -1), midnight
	case BucketDBY:
		return midnight.AddDate(0, 0, -2), midnight.AddDate(0, 0, -1)
	}
	return midnight, midnight.AddDate(0, 0, 1)
}

// ParseLimit interprets a raw limit parameter. Missing, malformed or
// non-positive values fall back to the default; oversized values are clamped.
func ParseLimit(raw string) int {
	if raw == "" {
		return DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Query is a fully resolved page request.
type Query struct {
	Limit    int
	Cursor   *Cursor
	Location *database.Location
	Bucket   *DateBucket
}

// Params translates the query into repository page parameters, resolving
// the bucket against the given current time.
func (q Query) Params(now time.Time) database.PageParams {
	p := database.PageParams{
		Limit:    q.Limit,
		Location: q.Location,
	}
	if q.Cursor != nil {
		t := q.Cursor.CreatedAt
		p.CursorCreatedAt = &t
		p.CursorID = q.Cursor.ID
	}
	if q.Bucket != nil {
		from, to := q.Bucket.Range(now)
		p.From = &from
		p.To = &to
	}
	return p
}

// NextCursor derives the cursor for the following page from the records
// just returned. A short page means the data is exhausted and no cursor
// is emitted.
func NextCursor(items []database.Memory, limit int) *Cursor {
	if len(items) == 0 || len(items) < limit {
		return nil
	}
	last := items[len(items)-1]
	return &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

// After reports whether the memory sits strictly after the cursor in the
// (created_at DESC, id DESC) ordering. The SQL row comparison in the
// repository implements the same predicate; this form serves in-memory
// consumers and tests.
func After(m database.Memory, c Cursor) bool {
	if m.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return m.CreatedAt.Equal(c.CreatedAt) && m.ID < c.ID
}
