// Package simulation runs a local energy community over a seasonal horizon.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lec-simulator/internal/community"
	"lec-simulator/internal/data"
	"lec-simulator/internal/grid"
	"lec-simulator/internal/loadshift"
	"lec-simulator/internal/market"
	"lec-simulator/internal/metrics"
	"lec-simulator/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Phase is the lifecycle stage of a run.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseRunning      Phase = "running"
	PhaseFinalizing   Phase = "finalizing"
	PhaseDone         Phase = "done"
)

// Observer is notified when a run ends. status is "ok", "invalid" or "error".
type Observer interface {
	RunFinished(status string, elapsed time.Duration, hours int, tradedKWh float64)
}

// Options configures an Engine. Zero fields fall back to the defaults.
type Options struct {
	Battery   model.BatteryParams
	Tariffs   grid.Schedule
	LoadShift loadshift.Config
	Pairing   market.Pairing

	Logger   logrus.FieldLogger
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.Battery == (model.BatteryParams{}) {
		o.Battery = model.DefaultBatteryParams()
	}
	if o.Tariffs.Base == (grid.Tariff{}) {
		o.Tariffs = grid.DefaultSchedule()
	}
	if o.LoadShift == (loadshift.Config{}) {
		o.LoadShift = loadshift.DefaultConfig()
	}
	if o.Pairing == "" {
		o.Pairing = market.PairingProportional
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

type Engine struct {
	provider data.Provider
	opts     Options
}

// New wraps provider so the dataset is read once per engine.
func New(provider data.Provider, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("dataset provider is nil")
	}
	opts = opts.withDefaults()
	if err := opts.Battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	if err := opts.Tariffs.Validate(); err != nil {
		return nil, fmt.Errorf("tariffs: %w", err)
	}
	if _, ok := provider.(*data.CachedProvider); !ok {
		provider = data.NewCachedProvider(provider)
	}
	return &Engine{provider: provider, opts: opts}, nil
}

// Dataset returns the engine's dataset, loading it on first use.
func (e *Engine) Dataset(ctx context.Context) (*data.Dataset, error) {
	return e.provider.Load(ctx)
}

// Run simulates one community. Identical params always produce an identical Outcome.
// Input problems are returned as *ValidationError.
func (e *Engine) Run(ctx context.Context, p model.SimulationParameters) (*Outcome, error) {
	started := time.Now()
	log := e.opts.Logger.WithFields(logrus.Fields{
		"community_size": p.CommunitySize,
		"season":         p.Season,
		"pv_pct":         p.PVPercentage,
		"sd_pct":         p.SDPercentage,
		"battery":        p.WithBattery,
		"seed":           p.Seed,
	})

	out, err := e.run(ctx, p, log)
	status := "ok"
	switch {
	case errors.Is(err, ErrValidation):
		status = "invalid"
		log.WithError(err).Warn("simulation rejected")
	case err != nil:
		status = "error"
		log.WithError(err).Error("simulation failed")
	}
	if e.opts.Observer != nil {
		var hours int
		var traded float64
		if out != nil {
			hours = out.Hours
			traded = out.Result.EnergyMetrics.TradingVolume
		}
		e.opts.Observer.RunFinished(status, time.Since(started), hours, traded)
	}
	return out, err
}

func (e *Engine) run(ctx context.Context, p model.SimulationParameters, log logrus.FieldLogger) (*Outcome, error) {
	phase := func(ph Phase) { log.WithField("phase", ph).Debug("simulation phase") }

	phase(PhaseInitializing)
	if problems := p.Validate(); len(problems) > 0 {
		return nil, invalid(problems...)
	}
	p.Season, _ = model.ParseSeason(string(p.Season))

	ds, err := e.provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	horizon := ds.FilterSeason(p.Season)
	if horizon.Len() == 0 {
		return nil, invalid(fmt.Sprintf("dataset has no samples in season %q", p.Season))
	}

	diag := &metrics.Diagnostics{}
	diag.Add(ds.Warnings...)

	rng := community.NewRand(p.Seed)
	buildings, warnings, err := community.Sample(p, horizon, e.opts.Battery, rng)
	if err != nil {
		if errors.Is(err, community.ErrInsufficientData) {
			return nil, &ValidationError{Problems: []string{err.Error()}, Err: err}
		}
		return nil, err
	}
	diag.Add(warnings...)

	buildings, stats := loadshift.Shift(buildings, horizon.Timestamps, e.opts.LoadShift, rng)
	log.WithFields(logrus.Fields{
		"shift_events": stats.Events,
		"shifted_kwh":  stats.ShiftedKWh,
	}).Debug("load shifted")

	hours := model.HoursFromTimestamps(horizon.Timestamps)
	base := fold{
		buildings: buildings,
		hours:     hours,
		season:    p.Season,
		tariffs:   e.opts.Tariffs,
		pairing:   e.opts.Pairing,
	}
	withLEC, withoutLEC := base, base
	withLEC.market, withLEC.ledger = true, true

	phase(PhaseRunning)
	var lec, counterfactual *foldResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		lec, err = withLEC.run(gctx)
		return err
	})
	g.Go(func() (err error) {
		counterfactual, err = withoutLEC.run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	phase(PhaseFinalizing)
	res := lec.agg.Finalize(counterfactual.agg, diag)

	phase(PhaseDone)
	log.WithFields(logrus.Fields{
		"hours":          len(hours),
		"trading_volume": res.EnergyMetrics.TradingVolume,
		"cost_with":      res.CostMetrics.CostWithLEC,
		"cost_without":   res.CostMetrics.CostWithoutLEC,
	}).Info("simulation finished")

	return &Outcome{
		Params:    p,
		Result:    res,
		Ledger:    lec.ledger,
		Buildings: buildings,
		Hours:     len(hours),
	}, nil
}

// RunMany runs each parameter set, at most limit at a time, and returns the outcomes
// in input order. The first failure cancels the rest.
func (e *Engine) RunMany(ctx context.Context, params []model.SimulationParameters, limit int) ([]*Outcome, error) {
	out := make([]*Outcome, len(params))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range params {
		g.Go(func() error {
			o, err := e.Run(gctx, p)
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
