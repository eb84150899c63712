package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Format selects the serialization used by Emit.
type Format string

const (
	// FormatC writes a C source file defining a SolarDataSet initializer.
	FormatC Format = "c"

	// FormatJSON writes the grid as indented JSON.
	FormatJSON Format = "json"
)

// cPrecision is the number of significant digits a float64 round-trips through.
const cPrecision = 16

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatC, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want c or json)", s)
	}
}

// Emit writes g to w in the given format.
func Emit(w io.Writer, g *Grid, f Format) error {
	switch f {
	case FormatJSON:
		return EmitJSON(w, g)
	case FormatC:
		return EmitC(w, g)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// EmitJSON writes g as indented JSON.
func EmitJSON(w io.Writer, g *Grid) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// EmitC writes g as a compilable C/C++ translation unit.
func EmitC(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	years, bodies := g.Years(), g.Bodies()

	fmt.Fprint(bw, "#include <cstdint>\n\n")
	fmt.Fprint(bw, "struct CBodyData {\n"+
		"  // Horizon celestial body ID `pidx * 100 + 99`, i.e. pidx=1 for Mercury -> id=199\n"+
		"  unsigned id;\n"+
		"  // Position on the ecliptical plane w/ units in [km]\n"+
		"  double position[3];\n"+
		"  // Velocity vector on the ecliptical plane w/ units in [km/s]\n"+
		"  double velocity[3];\n"+
		"};\n")
	fmt.Fprintf(bw, "struct SolarData {\n"+
		"  /// Timestamp in UTC, format YYYY-MM-DD HH:MM:SS\n"+
		"  const char* time_s;\n"+
		"  /// Seconds since Unix Epoch 1970-01-01T00:00:00.0Z in UTC\n"+
		"  int64_t time_u;\n"+
		"  CBodyData planets[%d];\n"+
		"};\n", bodies)
	fmt.Fprintf(bw, "struct SolarDataSet {\n"+
		"  /// Number of SolarData entries\n"+
		"  unsigned setCount;\n"+
		"  /// Number of CBodyData entries within each SolarData entry\n"+
		"  unsigned planetCount;\n"+
		"  SolarData set[%d];\n"+
		"};\n\n", years)
	fmt.Fprintf(bw, "SolarDataSet solarDataSet = {\n"+
		"    /// Number of SolarData entries\n"+
		"    %d,\n"+
		"    /// Number of CBodyData entries within each SolarData entry\n"+
		"    %d,\n"+
		"    /// SolarData entries\n"+
		"    {\n", years, bodies)

	for i, ts := range g.Slices {
		fmt.Fprintf(bw, "        /** SolarData [%d]: %s( */\n", i, ts.Timestamp)
		fmt.Fprintf(bw, "        { \"%s\", %d, {\n", ts.Timestamp, ts.EpochSeconds)
		for j, r := range ts.Records {
			fmt.Fprintf(bw, "            /** Planet [%d], id %d w/ max_precision %d */\n", j, r.BodyID, cPrecision)
			fmt.Fprintf(bw, "            { %d,\n", r.BodyID)
			fmt.Fprintf(bw, "              { %s, %s, %s},\n", cFloat(r.Position[0]), cFloat(r.Position[1]), cFloat(r.Position[2]))
			fmt.Fprintf(bw, "              { %s, %s, %s}\n", cFloat(r.Velocity[0]), cFloat(r.Velocity[1]), cFloat(r.Velocity[2]))
			if j < bodies-1 {
				fmt.Fprint(bw, "            },\n")
			} else {
				fmt.Fprint(bw, "            }\n")
			}
		}
		if i < years-1 {
			fmt.Fprint(bw, "        } },\n")
		} else {
			fmt.Fprint(bw, "        } }\n")
		}
	}
	fmt.Fprint(bw, "    }\n};\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func cFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', cPrecision, 64)
}
