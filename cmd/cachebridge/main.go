// Command cachebridge runs one cache bridge over a stream of JSON records.
//
// It reads newline-delimited JSON objects from stdin, performs the configured
// GET or SET for each one and writes the (possibly enriched) record to stdout.
//
//	cachebridge -config bridge.yaml < events.ndjson > out.ndjson
//	cachebridge -config bridge.yaml -metrics-addr :9108 -drop-on-miss
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/cachebridge"
	asynchook "github.com/unkn0wn-root/cachebridge/hooks/async"
	zapadapter "github.com/unkn0wn-root/cachebridge/log/zap"
	"github.com/unkn0wn-root/cachebridge/promhooks"
	"github.com/unkn0wn-root/cachebridge/sloghooks"
)

var Version = "dev"

func main() {
	fs := flag.NewFlagSet("cachebridge", flag.ExitOnError)
	configPath := fs.String("config", "cachebridge.yaml", "path to the YAML bridge configuration")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	logFormat := fs.String("log-format", "json", "json or console")
	failureTag := fs.String("tag-on-failure", "_cachebridgefailure", "tag appended to records whose cache operation failed")
	dropOnMiss := fs.Bool("drop-on-miss", false, "drop records whose GET found no entry")
	maxLine := fs.Int("max-line", defaultMaxLine, "longest input line in bytes; longer lines are skipped")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	hookLog := fs.Bool("hook-log", false, "log sampled hook callbacks to stderr")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println("cachebridge", Version)
		return
	}

	logger := initLogger(*logLevel, *logFormat)
	defer func() { _ = logger.Sync() }()

	st := &stage{log: logger, failureTag: *failureTag, lineLimit: *maxLine, dropOnMiss: *dropOnMiss}
	if err := serve(logger, *configPath, st, *metricsAddr, *hookLog); err != nil {
		logger.Error("cachebridge stopped", zap.Error(err))
		os.Exit(1)
	}
}

func serve(logger *zap.Logger, configPath string, s *stage, metricsAddr string, hookLog bool) error {
	cfg, err := cachebridge.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hooks cachebridge.MultiHooks
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		ph, err := promhooks.New(reg, "")
		if err != nil {
			return err
		}
		hooks = append(hooks, ph)
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	if hookLog {
		sl := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		ah := asynchook.New(sloghooks.New(sl, sloghooks.Options{MissEvery: 100, SkippedEvery: 100}), 1, 1024)
		defer ah.Close()
		hooks = append(hooks, ah)
	}

	opts := cachebridge.Options{Logger: zapadapter.New(logger)}
	if len(hooks) > 0 {
		opts.Hooks = hooks
	}
	bridge, err := cachebridge.Open(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := bridge.Close(context.Background()); err != nil {
			logger.Warn("close bridge", zap.Error(err))
		}
	}()

	logger.Info("cachebridge started",
		zap.String("version", Version),
		zap.String("backend", string(cfg.Backend)),
		zap.String("key", bridge.Key()),
		zap.Stringer("mode", bridge.Mode()),
	)

	s.proc = bridge
	st, err := s.run(ctx, os.Stdin, os.Stdout)
	logger.Info("cachebridge finished",
		zap.Int("in", st.in),
		zap.Int("out", st.out),
		zap.Int("failed", st.failed),
		zap.Int("dropped", st.dropped),
		zap.Int("malformed", st.malformed),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func initLogger(level, format string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		format = "json"
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
