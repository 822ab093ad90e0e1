package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/contextforge/skillet/pkg/budget"
	"github.com/contextforge/skillet/pkg/engine"
	"github.com/contextforge/skillet/pkg/skills"
)

// newDiscovery builds a Discovery from configuration: explicit skill_dirs
// when set, the default ./.skillet and ~/.skillet layout otherwise.
func newDiscovery() (*skills.Discovery, error) {
	if dirs := viper.GetStringSlice("skill_dirs"); len(dirs) > 0 {
		return skills.NewDiscovery(skills.WithSkillDirs(dirs...))
	}
	return skills.NewDiscovery()
}

// loadStore discovers skills and loads them into a fresh store.
func loadStore(ctx context.Context) (*skills.Store, *skills.Discovery, error) {
	discovery, err := newDiscovery()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize skill discovery")
	}

	store := skills.NewStore()
	if err := reloadStore(ctx, store, discovery); err != nil {
		return nil, nil, err
	}
	return store, discovery, nil
}

// reloadStore re-runs discovery and replaces the store snapshot. A failed
// load leaves the prior snapshot intact.
func reloadStore(_ context.Context, store *skills.Store, discovery *skills.Discovery) error {
	records, err := discovery.DiscoverSkills()
	if err != nil {
		return errors.Wrap(err, "skill discovery failed")
	}
	records = skills.FilterByAllowlist(records, viper.GetStringSlice("allowlist"))

	return errors.Wrap(store.Load(records), "failed to load skill store")
}

// newEngine assembles an engine over the store using the configured sizer
// and thresholds.
func newEngine(store *skills.Store) (*engine.Engine, error) {
	cfg := engine.DefaultConfig()
	if sub := viper.Sub("engine"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return nil, errors.Wrap(err, "invalid engine configuration")
		}
	}

	var sizer budget.Sizer = budget.RuneSizer{}
	if viper.GetString("sizer") == "tokens" {
		tokenSizer, err := budget.NewTokenSizer(viper.GetString("encoding"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize token sizer")
		}
		sizer = tokenSizer
	}

	return engine.New(store, engine.WithConfig(cfg), engine.WithSizer(sizer)), nil
}
