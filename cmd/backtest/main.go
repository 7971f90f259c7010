// Binary backtest replays collected samples through the configured strategy
// and prints a summary report.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/BSmick6/aurabot/internal/backtest"
	"github.com/BSmick6/aurabot/internal/config"
	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/execution"
	"github.com/BSmick6/aurabot/internal/model"
	"github.com/BSmick6/aurabot/internal/paper"
	"github.com/BSmick6/aurabot/internal/risk"
	"github.com/BSmick6/aurabot/internal/strategy"
	"github.com/BSmick6/aurabot/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	store, err := dataset.Open(cfg.Dataset.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open sample store")
	}
	defer store.Close()

	var m *model.Logistic
	if cfg.Model.Path != "" {
		if loaded, err := model.Load(cfg.Model.Path); err != nil {
			log.Warn().Err(err).Str("path", cfg.Model.Path).Msg("weights unavailable, falling back")
		} else {
			m = loaded
		}
	}

	strat := strategy.Build(cfg.Strategy.Mode, strategyParams(cfg.Strategy.Params), m)
	manager := risk.NewManager(risk.Limits{
		MaxNotionalPerTrade:  cfg.Risk.MaxNotionalPerTrade,
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		KillSwitchDrawdown:   cfg.Risk.KillSwitchDrawdown,
		MaxPortfolioNotional: cfg.Risk.MaxPortfolioNotional,
	})
	sim := execution.NewSimulator(execution.SimulatorConfig{
		SlippageBps:            cfg.Paper.SlippageBps,
		FeeBps:                 cfg.Paper.FeeBps,
		MaxLatency:             time.Duration(cfg.Paper.MaxLatencyMs) * time.Millisecond,
		PartialFillProbability: cfg.Paper.PartialFillProbability,
		MaxPartialFills:        cfg.Paper.MaxPartialFills,
	}, rand.New(rand.NewSource(cfg.Backtest.Seed)))
	account := paper.NewAccount(cfg.Paper.StartingCash, cfg.Paper.MaxPositionPerSymbol)

	btCfg, err := backtestConfig(cfg.Backtest)
	if err != nil {
		log.Fatal().Err(err).Msg("parse backtest window")
	}

	var recorders []paper.FillRecorder
	if cfg.Paper.FillsPath != "" {
		recorder, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer recorder.Close()
		recorders = append(recorders, recorder)
	}

	engine := backtest.NewEngine(log, store, strat, manager, sim, account, btCfg, recorders...)
	report, err := engine.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	log.Info().Str("strategy", strat.Name()).Msg("backtest complete")
	fmt.Fprintln(os.Stdout, report)
}

func strategyParams(p config.StrategyParams) strategy.Params {
	return strategy.Params{
		OBILevels:         p.OBILevels,
		OBIThreshold:      p.OBIThreshold,
		VolWindowSecs:     p.VolWindowSecs,
		TrendThreshold:    p.TrendThreshold,
		TrendWindowSecs:   p.TrendWindowSecs,
		TrendMinVolumeUSD: p.TrendMinVolumeUSD,
		AuraThreshold:     p.AuraThreshold,
		AuraModelWeight:   p.AuraModelWeight,
	}
}

func backtestConfig(b config.Backtest) (backtest.Config, error) {
	out := backtest.Config{Symbols: b.Symbols, Seed: b.Seed, OrderNotional: b.OrderNotional}
	var err error
	if b.From != "" {
		if out.From, err = time.Parse(time.RFC3339, b.From); err != nil {
			return out, fmt.Errorf("parse from: %w", err)
		}
	}
	if b.To != "" {
		if out.To, err = time.Parse(time.RFC3339, b.To); err != nil {
			return out, fmt.Errorf("parse to: %w", err)
		}
	}
	return out, nil
}
