package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"taxonid/internal/config"
	"taxonid/internal/logging"
	"taxonid/internal/metrics"
	"taxonid/internal/observation"
	"taxonid/internal/services"
	"taxonid/internal/statscache"
	"taxonid/internal/store"
	"taxonid/internal/synonym"
	"taxonid/internal/taxon"
	"taxonid/internal/taxonapi"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	metrics *metrics.Recorder
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		metrics:    metrics.New(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("%w: %w", services.ErrConfiguration, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// withStore opens the configured store for the duration of fn.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// searcher returns the remote search client when one is configured and
// requested, and the local catalog otherwise.
func (c *commandContext) searcher(st *store.Store, remote bool) (taxon.Searcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !remote {
		return st, nil
	}
	if !cfg.RemoteSearchEnabled() {
		return nil, fmt.Errorf("%w: search.base_url is not set", services.ErrConfiguration)
	}
	client, err := taxonapi.New(cfg.Search.BaseURL, cfg.Search.APIKey,
		taxonapi.WithTimeout(cfg.SearchTimeout()),
		taxonapi.WithPerPage(cfg.Search.PerPage),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *commandContext) resolver(lookup synonym.Lookup) *synonym.Resolver {
	return synonym.NewResolver(lookup,
		synonym.WithLogger(c.loggerValue()),
		synonym.WithObserver(c.metrics),
	)
}

func (c *commandContext) service(cfg *config.Config, st *store.Store, lookup synonym.Lookup) *observation.Service {
	return observation.NewService(st,
		observation.WithLogger(c.loggerValue()),
		observation.WithResolver(c.resolver(lookup)),
		observation.WithMetrics(c.metrics),
		observation.WithStatsCache(cfg.StatsTTL(), statscache.SystemClock{}),
	)
}

func (c *commandContext) flushMetrics() error {
	cfg, err := c.ensureConfig()
	if err != nil || cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := c.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(c.loggerValue(), "metrics export failed", "metrics_textfile_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.textfile is writable"),
			logging.String(logging.FieldImpact, "metrics for this run were not exported"),
		)
	}
	return nil
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
