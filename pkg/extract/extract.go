// Package extract pulls state vectors out of Horizons text responses.
package extract

import (
	"regexp"
	"strconv"
)

const num = `([-+]?\d+\.\d+E[-+]\d\d)`

var (
	positionPattern = regexp.MustCompile(`X *= *` + num + ` *Y *= *` + num + ` *Z *= *` + num)
	velocityPattern = regexp.MustCompile(`VX *= *` + num + ` *VY *= *` + num + ` *VZ *= *` + num)
)

// Vectors holds one ecliptic state vector.
type Vectors struct {
	// Position in km
	Position [3]float64
	// Velocity in km/s
	Velocity [3]float64
}

// Extract returns the first position triple and the first velocity triple in text.
// Both must be present for ok to be true.
func Extract(text string) (v Vectors, ok bool) {
	pos, ok := triple(positionPattern, text)
	if !ok {
		return Vectors{}, false
	}
	vel, ok := triple(velocityPattern, text)
	if !ok {
		return Vectors{}, false
	}
	return Vectors{Position: pos, Velocity: vel}, true
}

func triple(re *regexp.Regexp, text string) ([3]float64, bool) {
	var out [3]float64
	m := re.FindStringSubmatch(text)
	if len(m) != 4 {
		return out, false
	}
	for i := range out {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return [3]float64{}, false
		}
		out[i] = f
	}
	return out, true
}
