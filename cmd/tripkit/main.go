// Command tripkit 训练地点推荐模型并编排多日行程。
//
//	tripkit train --places places.json --interactions interactions.json
//	tripkit plan --request request.yaml --spots places.json
//	tripkit similar --place louvre --top 5
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/rushteam/tripkit/config"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/metrics"
	"github.com/rushteam/tripkit/pkg/logging"
	"github.com/rushteam/tripkit/store"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"Config file path (YAML)." type:"path" env:"TRIPKIT_CONFIG"`
	LogLevel  string `help:"Override log level (debug, info, warn, error)."`
	LogFormat string `help:"Override log format (json, console)."`

	Train     TrainCmd     `cmd:"" help:"Fit the hybrid recommender and persist the model."`
	Plan      PlanCmd      `cmd:"" help:"Build a multi-day itinerary."`
	Recommend RecommendCmd `cmd:"" help:"Recommend places for a user or a set of tags."`
	Score     ScoreCmd     `cmd:"" help:"Score a single place against preferred tags."`
	Similar   SimilarCmd   `cmd:"" help:"List places similar to a place."`
	Top       TopCmd       `cmd:"" help:"List the most popular places."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("tripkit"),
		kong.Description("Hybrid place recommender and itinerary planner"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	appCtx, err := newContext(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer appCtx.Close()

	if err := kctx.Run(appCtx); err != nil {
		appCtx.Logger.Error().Err(err).Str("command", kctx.Command()).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		appCtx.Close()
		os.Exit(1)
	}
}

// Context 是所有子命令共享的运行环境。
type Context struct {
	Config  *config.Config
	Store   core.Store
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Out     io.Writer

	closed bool
}

func newContext(out io.Writer) (*Context, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Log.Format = CLI.LogFormat
	}
	logger := logging.New(cfg.Log).With().Str("app", "tripkit").Logger()

	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	logger.Debug().Str("backend", s.Name()).Msg("store opened")

	return &Context{
		Config:  cfg,
		Store:   s,
		Logger:  logger,
		Metrics: metrics.New(nil),
		Out:     out,
	}, nil
}

// Close 关闭存储。可重复调用。
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if err := c.Store.Close(); err != nil {
		c.Logger.Warn().Err(err).Msg("close store")
	}
}

// commandContext 收到 SIGINT/SIGTERM 时取消；timeout > 0 时附加超时。
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
