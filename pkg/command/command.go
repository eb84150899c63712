// Package command builds Horizons batch-file commands and the identifiers
// and dates that go into them.
package command

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Placeholders substituted by Build.
const (
	// ObjectIDMark is replaced once with the target body identifier.
	ObjectIDMark = "OBJECT_ID"

	// ObjectDateMark is replaced everywhere with the calendar date (YYYY-MM-DD).
	ObjectDateMark = "OBJECT_DATE"
)

// DefaultTemplate requests a single ecliptic state vector relative to the Sun
// at 00:00:00 of the given date.
const DefaultTemplate = "!$$SOF\n" +
	"COMMAND='" + ObjectIDMark + "'\n" +
	"TABLE_TYPE='Vector'\n" +
	"CENTER='@010'\n" +
	"REF_PLANE='Ecliptic'\n" +
	"START_TIME='" + ObjectDateMark + " 00:00:00'\n" +
	"STOP_TIME='" + ObjectDateMark + " 00:00:01'\n"

// TimestampLayout is the UTC layout of TimeSlice timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrMissingObjectID is returned when a template lacks the ObjectIDMark placeholder.
var ErrMissingObjectID = errors.New("command template has no " + ObjectIDMark + " placeholder")

// Builder turns (object id, date) pairs into request payloads.
type Builder struct {
	Template string
}

// NewBuilder returns a Builder for template, or DefaultTemplate when empty.
func NewBuilder(template string) Builder {
	if template == "" {
		template = DefaultTemplate
	}
	return Builder{Template: template}
}

// Validate reports whether the template can produce commands.
func (b Builder) Validate() error {
	if !strings.Contains(b.Template, ObjectIDMark) {
		return ErrMissingObjectID
	}
	return nil
}

// Build substitutes the first object id placeholder and every date placeholder.
// Substituted text is never rescanned.
func (b Builder) Build(objectID, date string) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	s := strings.Replace(b.Template, ObjectIDMark, objectID, 1)
	return strings.ReplaceAll(s, ObjectDateMark, date), nil
}

// BodyID returns the Horizons identifier recorded for body index idx.
// Planet codes follow idx*100+99 (Mercury 1 -> 199), barycenters use the bare index.
func BodyID(idx int, barycenter bool) int {
	if barycenter {
		return idx % 10
	}
	return (idx*100 + 99) % 1000
}

// ObjectID returns the COMMAND value for body index idx.
// Barycenter mode requests the barycenter code itself ("3", not the planet
// "399"), so the returned vectors are the barycenter's.
func ObjectID(idx int, barycenter bool) string {
	if barycenter {
		return fmt.Sprintf("%d", BodyID(idx, true))
	}
	return fmt.Sprintf("%03d", BodyID(idx, false))
}

// DateString returns January 1st of year as YYYY-MM-DD.
func DateString(year int) string {
	return fmt.Sprintf("%04d-01-01", year)
}

// Timestamp returns midnight UTC of January 1st of year.
func Timestamp(year int) string {
	return DateString(year) + " 00:00:00"
}

// EpochSeconds converts a UTC timestamp in TimestampLayout to Unix seconds.
func EpochSeconds(timestamp string) (int64, error) {
	t, err := time.ParseInLocation(TimestampLayout, timestamp, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", timestamp, err)
	}
	return t.Unix(), nil
}
