package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/Sternrassler/horizons-fetch/pkg/extract"
)

func TestNew(t *testing.T) {
	g, err := New(2020, 2, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if g.Years() != 2 || g.Bodies() != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", g.Years(), g.Bodies())
	}

	first := g.Slices[0]
	if first.Timestamp != "2020-01-01 00:00:00" {
		t.Errorf("Timestamp = %q", first.Timestamp)
	}
	if first.EpochSeconds != 1577836800 {
		t.Errorf("EpochSeconds = %d, want 1577836800", first.EpochSeconds)
	}
	if math.Abs(first.JulianDay-2458849.5) > 1e-6 {
		t.Errorf("JulianDay = %v, want 2458849.5", first.JulianDay)
	}
	if g.Slices[1].Timestamp != "2021-01-01 00:00:00" {
		t.Errorf("second Timestamp = %q", g.Slices[1].Timestamp)
	}

	for i := range g.Slices {
		if len(g.Slices[i].Records) != 3 {
			t.Errorf("slice %d has %d records, want 3", i, len(g.Slices[i].Records))
		}
	}
	if g.Populated() != 0 {
		t.Errorf("Populated() = %d, want 0", g.Populated())
	}
}

func TestNew_InvalidShape(t *testing.T) {
	if _, err := New(2020, 0, 1); err == nil {
		t.Error("Expected error for zero years")
	}
	if _, err := New(2020, 1, 0); err == nil {
		t.Error("Expected error for zero bodies")
	}
}

func TestCell_SetAndClear(t *testing.T) {
	g, err := New(2020, 1, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cell := g.Cell(0, 1)
	cell.BodyID = 299
	cell.Set(extract.Vectors{
		Position: [3]float64{1, 2, 3},
		Velocity: [3]float64{4, 5, 6},
	})

	if !g.Slices[0].Records[1].Valid {
		t.Error("Cell write not visible through grid")
	}
	if g.Slices[0].Records[0].Valid {
		t.Error("Neighbouring cell should be untouched")
	}
	if g.Populated() != 1 {
		t.Errorf("Populated() = %d, want 1", g.Populated())
	}

	cell.Clear()
	if cell.Valid || cell.Position != [3]float64{} || cell.Velocity != [3]float64{} {
		t.Errorf("Clear() left %+v", *cell)
	}
	if cell.BodyID != 299 {
		t.Errorf("Clear() changed BodyID to %d", cell.BodyID)
	}
}

func TestEmitC(t *testing.T) {
	g, err := New(2020, 2, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cell := g.Cell(0, 0)
	cell.BodyID = 199
	cell.Set(extract.Vectors{
		Position: [3]float64{1.234567890123e8, -2.345678901234e7, 3.456789012345e6},
		Velocity: [3]float64{1.0e-2, -2.0e-3, 3.0e-4},
	})

	var buf bytes.Buffer
	if err := EmitC(&buf, g); err != nil {
		t.Fatalf("EmitC() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"#include <cstdint>",
		"CBodyData planets[1];",
		"SolarData set[2];",
		`{ "2020-01-01 00:00:00", 1577836800, {`,
		"/** Planet [0], id 199 w/ max_precision 16 */",
		"{ 123456789.0123, -23456789.01234, 3456789.012345},",
		"{ 0.01, -0.002, 0.0003}",
		"        } },\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("EmitC output missing %q", want)
		}
	}
	if !strings.HasSuffix(out, "        } }\n    }\n};\n") {
		t.Errorf("EmitC output has unexpected tail: %q", out[len(out)-40:])
	}
}

func TestEmitJSON(t *testing.T) {
	g, err := New(2021, 1, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.Cell(0, 0).BodyID = 5

	var buf bytes.Buffer
	if err := Emit(&buf, g, FormatJSON); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	var decoded struct {
		YearMin int `json:"year_min"`
		Set     []struct {
			TimeS   string `json:"time_s"`
			Planets []struct {
				ID    int  `json:"id"`
				Valid bool `json:"valid"`
			} `json:"planets"`
		} `json:"set"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.YearMin != 2021 || len(decoded.Set) != 1 || decoded.Set[0].Planets[0].ID != 5 {
		t.Errorf("Unexpected decoded dataset: %+v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"c", FormatC, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
