package sink

import (
	"fmt"
	"strings"
)

// Key identifies a published dataset in Redis.
type Key struct {
	// Prefix overrides the leading namespace (default "horizons:dataset")
	Prefix string

	YearMin, YearMax int
	BodyMin, BodyMax int
	Barycenter       bool
}

// String generates a deterministic key string.
// Format: horizons:dataset:years=2014-2024:bodies=1-9[:bary]
func (k Key) String() string {
	prefix := strings.Trim(k.Prefix, ":")
	if prefix == "" {
		prefix = "horizons:dataset"
	}

	parts := []string{
		prefix,
		fmt.Sprintf("years=%d-%d", k.YearMin, k.YearMax),
		fmt.Sprintf("bodies=%d-%d", k.BodyMin, k.BodyMax),
	}
	if k.Barycenter {
		parts = append(parts, "bary")
	}

	return strings.Join(parts, ":")
}
