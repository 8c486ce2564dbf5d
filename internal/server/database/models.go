package database

import "time"

// Location is the place tag attached to a memory.
type Location string

const (
	LocationMountain Location = "MOUNTAIN"
	LocationSea      Location = "SEA"
	LocationSky      Location = "SKY"
)

// ParseLocation validates a raw location value.
func ParseLocation(s string) (Location, bool) {
	switch Location(s) {
	case LocationMountain, LocationSea, LocationSky:
		return Location(s), true
	}
	return "", false
}

// Memory represents one stored photo+message entry.
// Records are immutable after creation.
type Memory struct {
	ID        int64
	Nickname  string
	ImageURL  string
	ImageKey  string // object-storage key behind ImageURL
	Message   string
	Location  Location
	Size      int64
	CreatedAt time.Time
}

// PhotoStats is the singleton running-totals record. Counters only ever
// increase; retention-job deletions do not roll them back, so the totals
// read as "ever emitted" rather than "currently stored".
type PhotoStats struct {
	DeletedPhotoCount int64
	PeopleCount       int64
	TotalPhotoSize    int64
}
