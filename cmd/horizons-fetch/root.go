package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
	"github.com/Sternrassler/horizons-fetch/pkg/extract"
	"github.com/Sternrassler/horizons-fetch/pkg/fetch"
	"github.com/Sternrassler/horizons-fetch/pkg/logging"
	"github.com/Sternrassler/horizons-fetch/pkg/metrics"
	"github.com/Sternrassler/horizons-fetch/pkg/sink"
	"github.com/Sternrassler/horizons-fetch/pkg/tracing"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "horizons-fetch [<file> | <yearMin> <yearMax> <bodyCount>]",
		Short: "Fetch planetary state vectors from JPL Horizons",
		Long: "horizons-fetch requests position and velocity vectors for bodyCount bodies\n" +
			"on January 1st of every year in [yearMin, yearMax] and writes them as a dataset.\n" +
			"Defaults to 2014..2024 and 9 bodies. With a single file argument the file is\n" +
			"parsed as a Horizons response and the exit code reports whether vectors were found.\n\n" +
			"Exit status is 1 when any request fails; no dataset is written in that case.",
		Args:         positionalArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runParse(cmd, args[0])
			}
			return runFetch(cmd, args)
		},
	}
	bindFlags(cmd)
	return cmd
}

func positionalArgs(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0, 1, 3:
		return nil
	default:
		return fmt.Errorf("accepts 0, 1 or 3 args, received %d", len(args))
	}
}

// parseRanges converts yearMin yearMax bodyCount into validated ranges.
func parseRanges(args []string) (fetch.Range, fetch.Range, error) {
	years, bodies := fetch.DefaultYears, fetch.DefaultBodies
	if len(args) == 3 {
		n := make([]int, 3)
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return years, bodies, fmt.Errorf("%w: %q is not an integer", fetch.ErrInvalidRange, a)
			}
			n[i] = v
		}
		years = fetch.Range{Min: n[0], Max: n[1]}
		bodies = fetch.Range{Min: 1, Max: n[2]}
	}
	return years, bodies, fetch.ValidateRanges(years, bodies)
}

func runParse(cmd *cobra.Command, path string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logging.Setup(s.Logging)
	logger := logging.NewLogger("cli")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	logger.Info().Str("file", path).Int("bytes", len(data)).Msg("Parsing data file")

	v, ok := extract.Extract(string(data))
	if !ok {
		return fmt.Errorf("no state vectors in %s", path)
	}
	logger.Info().
		Floats64("position", v.Position[:]).
		Floats64("velocity", v.Velocity[:]).
		Msg("Parsed state vectors")
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	years, bodies, err := parseRanges(args)
	if err != nil {
		return err
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logging.Setup(s.Logging)
	logger := logging.NewLogger("cli")

	logger.Info().
		Str("bodies", bodies.String()).
		Str("years", years.String()).
		Bool("barycenter", s.Barycenter).
		Msg("User args")

	orch, err := fetch.New(s.Fetch, fetch.WithLogger(logging.NewLogger("fetch")))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	traceCfg := tracing.DefaultConfig()
	traceCfg.Enabled = s.Trace
	traceCfg.Output = cmd.ErrOrStderr()
	shutdown, err := tracing.Init(ctx, traceCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Trace shutdown failed")
		}
	}()

	grid, res, err := orch.Run(ctx, years, bodies, s.Barycenter)
	if err != nil {
		return err
	}
	if s.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.MetricsFile); err != nil {
			logger.Warn().Err(err).Str("path", s.MetricsFile).Msg("Metrics not written")
		}
	}

	if res.Errors > 0 {
		logger.Error().
			Int("errors", res.Errors).
			Int("requested", res.Requested).
			Msg("Requests failed, no dataset written")
		return fmt.Errorf("%d of %d requests failed", res.Errors, res.Requested)
	}

	if err := writeDataset(cmd.OutOrStdout(), s.Output, grid, s.Format); err != nil {
		return err
	}

	if s.RedisAddr != "" {
		key := sink.Key{
			Prefix:     s.RedisKey,
			YearMin:    years.Min,
			YearMax:    years.Max,
			BodyMin:    bodies.Min,
			BodyMax:    bodies.Max,
			Barycenter: s.Barycenter,
		}
		if err := publish(ctx, s, key, grid, logging.NewLogger("sink")); err != nil {
			return err
		}
	}
	return nil
}

func writeDataset(stdout io.Writer, path string, g *dataset.Grid, f dataset.Format) error {
	if path == "" {
		return dataset.Emit(stdout, g, f)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := dataset.Emit(file, g, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func publish(ctx context.Context, s settings, key sink.Key, g *dataset.Grid, logger zerolog.Logger) error {
	client, err := sink.NewClient(s.RedisAddr)
	if err != nil {
		return err
	}
	p := sink.NewPublisher(client, s.RedisTTL, logger)
	defer p.Close()

	return p.Publish(ctx, key, g)
}
