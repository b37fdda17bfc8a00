package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
	"github.com/hsiuhsiu/objinfo-go/internal/config"
	"github.com/hsiuhsiu/objinfo-go/internal/logging"
	"github.com/hsiuhsiu/objinfo-go/pkg/objinfo"
)

type library struct {
	logger  logging.Logger
	options []objinfo.Option
}

var (
	setupOnce sync.Once
	lib       *library
)

// configure runs the one-time library setup on the first exported call. A
// broken configuration never fails a call: it is logged and the defaults are
// used instead.
func configure() *library {
	setupOnce.Do(func() { setup(config.Load) })
	return lib
}

// setup installs a silent defaults-only library before loading the real one,
// so a panic during loading still leaves every later call a usable library.
func setup(load func() (config.Config, error)) {
	lib = &library{logger: logging.Nop()}
	l := newLibrary(load)
	lib = l
	boundary.SetLogger(l.logger)
}

func newLibrary(load func() (config.Config, error)) *library {
	cfg, cfgErr := load()
	if cfgErr != nil {
		cfg = config.Default()
	}

	logger, err := newLogger(cfg)
	if err != nil {
		cfgErr = errors.Join(cfgErr, err)
		if logger, err = newLogger(config.Default()); err != nil {
			logger = logging.Nop()
		}
	}
	if cfgErr != nil {
		logger.Warn(context.Background(), "invalid configuration, using defaults", "error", cfgErr)
	}

	return &library{
		logger: logger,
		options: []objinfo.Option{
			objinfo.WithCache(cfg.CacheQueries),
			objinfo.WithMaxSize(cfg.MaxObjectSize),
			objinfo.WithMmap(cfg.UseMmap),
			objinfo.WithLogger(logger),
		},
	}
}

// newLogger opens LogFile for appending when set. The file stays open for the
// life of the process.
func newLogger(cfg config.Config) (logging.Logger, error) {
	lc := cfg.LoggingConfig()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		lc.Output = f
	}
	return logging.FromConfig(lc)
}
