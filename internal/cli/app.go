package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VeganGarden/MyGarden-sub002/internal/baseline"
	"github.com/VeganGarden/MyGarden-sub002/internal/coefficients"
	"github.com/VeganGarden/MyGarden-sub002/internal/config"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
	"github.com/VeganGarden/MyGarden-sub002/internal/recalc"
	"github.com/VeganGarden/MyGarden-sub002/internal/store"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// app is the engine wired over the SQLite store.
type app struct {
	store    *store.Store
	service  *engine.Service
	registry *prometheus.Registry
}

// openApp opens the store named in cfg and wires every component over it.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg.Store.Path != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Store.Path, err)
	}

	reg := prometheus.NewRegistry()
	matcher := factor.NewMatcher(st, st,
		factor.WithTTL(cfg.Cache.FactorTTL),
		factor.WithCleanupThreshold(cfg.Cache.FactorCleanupThreshold),
		factor.WithDefaultRegion(cfg.Engine.DefaultFactorRegion),
		factor.WithRegisterer(reg),
	)
	coeffs := coefficients.New(st, cfg.Cache.ConfigTTL)
	resolver := baseline.NewResolver(st,
		baseline.WithDefaults(cfg.Engine.DefaultBaselines),
		baseline.WithNationalRegion(cfg.Engine.DefaultBaselineRegion),
	)

	policy := policyFromConfig(cfg)
	calculators := engine.NewCalculators(matcher, coeffs, resolver, policy)
	service := engine.NewService(calculators,
		baseline.NewClassifier(resolver, policy.UncertaintyRatio),
		matcher, st,
		engine.WithDefaultLevel(cfg.Engine.DefaultLevel),
		engine.WithServiceRegisterer(reg),
	)
	service.AttachRecalculator(recalc.New(service, st, st, st,
		recalc.WithBatchSize(cfg.Batch.Size),
		recalc.WithDefaults(recalc.Defaults{
			Level:      cfg.Engine.DefaultLevel,
			MealType:   cfg.Engine.DefaultMealType,
			EnergyType: cfg.Engine.DefaultEnergyType,
			Region:     cfg.Engine.DefaultBaselineRegion,
		}),
	))

	return &app{store: st, service: service, registry: reg}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func policyFromConfig(cfg *config.Config) engine.Policy {
	return engine.Policy{
		Limits: validation.Limits{
			MaxFootprintKg: cfg.Engine.MaxFootprintKg,
			SumTolerance:   cfg.Engine.SumTolerance,
		},
		GasFlowDivisor:   cfg.Engine.GasFlowDivisor,
		Allocation:       cfg.Engine.EstimateAllocation,
		UncertaintyRatio: cfg.Engine.BaselineUncertaintyRatio,
	}
}
