// Package dataset holds the pre-sized year × body result grid.
//
// The grid is allocated once with its final shape. Every cell is handed to
// exactly one writer before that writer starts, so cells are written without
// locking; readers must only look at a cell after observing its writer finish.
package dataset

import (
	"fmt"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/Sternrassler/horizons-fetch/pkg/command"
	"github.com/Sternrassler/horizons-fetch/pkg/extract"
)

// CBodyRecord is the state of one celestial body at one TimeSlice.
type CBodyRecord struct {
	// BodyID is the Horizons identifier, e.g. 199 for Mercury or 1 for its barycenter
	BodyID int `json:"id"`

	// Position on the ecliptic plane in km
	Position [3]float64 `json:"position"`

	// Velocity on the ecliptic plane in km/s
	Velocity [3]float64 `json:"velocity"`

	// Valid is set once a response has been parsed into this cell.
	// Position and Velocity are all zero while Valid is false.
	Valid bool `json:"valid"`
}

// Set stores extracted vectors and marks the record valid.
func (r *CBodyRecord) Set(v extract.Vectors) {
	r.Position = v.Position
	r.Velocity = v.Velocity
	r.Valid = true
}

// Clear zeroes the vectors and marks the record invalid. BodyID is kept.
func (r *CBodyRecord) Clear() {
	r.Position = [3]float64{}
	r.Velocity = [3]float64{}
	r.Valid = false
}

// TimeSlice holds every body's record for one timestamp.
type TimeSlice struct {
	// Timestamp in UTC, format YYYY-MM-DD HH:MM:SS
	Timestamp string `json:"time_s"`

	// EpochSeconds since 1970-01-01T00:00:00Z
	EpochSeconds int64 `json:"time_u"`

	// JulianDay of Timestamp (UT)
	JulianDay float64 `json:"jd"`

	Records []CBodyRecord `json:"planets"`
}

// Grid is the yearCount × bodyCount result container.
type Grid struct {
	YearMin int         `json:"year_min"`
	Slices  []TimeSlice `json:"set"`

	bodies int
}

// New allocates a grid for yearCount consecutive years starting at yearMin and
// bodyCount bodies per year. Timestamps are filled in; records start cleared.
func New(yearMin, yearCount, bodyCount int) (*Grid, error) {
	if yearCount < 1 || bodyCount < 1 {
		return nil, fmt.Errorf("invalid grid shape %dx%d", yearCount, bodyCount)
	}

	g := &Grid{
		YearMin: yearMin,
		Slices:  make([]TimeSlice, yearCount),
		bodies:  bodyCount,
	}
	for i := range g.Slices {
		year := yearMin + i
		ts := command.Timestamp(year)
		secs, err := command.EpochSeconds(ts)
		if err != nil {
			return nil, err
		}
		g.Slices[i] = TimeSlice{
			Timestamp:    ts,
			EpochSeconds: secs,
			JulianDay:    satellite.JDay(year, 1, 1, 0, 0, 0),
			Records:      make([]CBodyRecord, bodyCount),
		}
	}
	return g, nil
}

// Years returns the number of TimeSlices.
func (g *Grid) Years() int { return len(g.Slices) }

// Bodies returns the number of records per TimeSlice.
func (g *Grid) Bodies() int { return g.bodies }

// Cell returns the record at (yearIdx, bodyIdx). It panics when out of range.
func (g *Grid) Cell(yearIdx, bodyIdx int) *CBodyRecord {
	return &g.Slices[yearIdx].Records[bodyIdx]
}

// Populated counts valid records.
func (g *Grid) Populated() int {
	n := 0
	for i := range g.Slices {
		for j := range g.Slices[i].Records {
			if g.Slices[i].Records[j].Valid {
				n++
			}
		}
	}
	return n
}
