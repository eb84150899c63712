package sink

import (
	"testing"

	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
	"github.com/Sternrassler/horizons-fetch/pkg/extract"
)

func newTestGrid(t *testing.T) *dataset.Grid {
	t.Helper()

	g, err := dataset.New(2020, 1, 1)
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	g.Cell(0, 0).Set(extract.Vectors{
		Position: [3]float64{1.5e8, -2e7, 3e6},
		Velocity: [3]float64{0.01, -0.002, 0.0003},
	})
	return g
}
