package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
	"github.com/Sternrassler/horizons-fetch/pkg/fetch"
	"github.com/Sternrassler/horizons-fetch/pkg/logging"
)

const envPrefix = "HORIZONS"

// settings is the resolved flag, environment and config file state.
type settings struct {
	Fetch      fetch.Config
	Format     dataset.Format
	Output     string
	Barycenter bool

	RedisAddr string
	RedisKey  string
	RedisTTL  time.Duration

	MetricsFile string
	Trace       bool

	Logging logging.Config
}

func bindFlags(cmd *cobra.Command) {
	def := fetch.DefaultConfig()
	f := cmd.Flags()

	f.Bool("barycenter", false, "request planetary system barycenters instead of planet centers")
	f.Int("max-connections", def.MaxConnections, "maximum simultaneous requests")
	f.String("uri", def.URI, "Horizons file API endpoint")
	f.Duration("timeout", def.Timeout, "per-request HTTP timeout")
	f.String("user-agent", def.UserAgent, "User-Agent header")
	f.String("template", "", "path to a command template file (default: built-in vector query)")
	f.String("format", string(dataset.FormatC), "dataset format: c or json")
	f.StringP("output", "o", "", "write the dataset to this file instead of stdout")
	f.String("redis-addr", "", "also publish the dataset to this Redis (host:port or redis:// URL)")
	f.String("redis-key", "", "key prefix for the published dataset (default horizons:dataset)")
	f.Duration("redis-ttl", 0, "expiry of the published dataset (0 = none)")
	f.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	f.Bool("trace", false, "export OpenTelemetry spans to stderr")
	f.String("log-level", string(logging.LevelInfo), "log level: debug, info, warn, error")
	f.String("log-format", string(logging.FormatConsole), "log format: console or json")
	f.String("config", "", "config file (default ./horizons-fetch.{yaml,toml,json} if present)")
}

// loadSettings layers flags over HORIZONS_* environment variables over the
// optional config file.
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("horizons-fetch")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	format, err := dataset.ParseFormat(v.GetString("format"))
	if err != nil {
		return settings{}, err
	}
	logFormat, err := logging.ParseFormat(v.GetString("log-format"))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		Fetch: fetch.Config{
			URI:            v.GetString("uri"),
			MaxConnections: v.GetInt("max-connections"),
			Timeout:        v.GetDuration("timeout"),
			UserAgent:      v.GetString("user-agent"),
		},
		Format:      format,
		Output:      v.GetString("output"),
		Barycenter:  v.GetBool("barycenter"),
		RedisAddr:   v.GetString("redis-addr"),
		RedisKey:    v.GetString("redis-key"),
		RedisTTL:    v.GetDuration("redis-ttl"),
		MetricsFile: v.GetString("metrics-file"),
		Trace:       v.GetBool("trace"),
		Logging: logging.Config{
			Level:  logging.LogLevel(v.GetString("log-level")),
			Format: logFormat,
			Output: cmd.ErrOrStderr(),
		},
	}

	if path := v.GetString("template"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return settings{}, fmt.Errorf("read template: %w", err)
		}
		s.Fetch.Template = string(data)
	}

	return s, nil
}
