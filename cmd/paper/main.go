// Binary paper trades live market data against a virtual account.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/chain"
	"github.com/BSmick6/aurabot/internal/config"
	"github.com/BSmick6/aurabot/internal/exchange"
	"github.com/BSmick6/aurabot/internal/execution"
	"github.com/BSmick6/aurabot/internal/metrics"
	"github.com/BSmick6/aurabot/internal/model"
	"github.com/BSmick6/aurabot/internal/paper"
	"github.com/BSmick6/aurabot/internal/risk"
	sig "github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/social"
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

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var m *model.Logistic
	if cfg.Model.Path != "" {
		if loaded, err := model.Load(cfg.Model.Path); err != nil {
			log.Warn().Err(err).Str("path", cfg.Model.Path).Msg("weights unavailable, falling back")
		} else {
			m = loaded
		}
	}

	strat := strategy.Build(cfg.Strategy.Mode, strategyParams(cfg.Strategy.Params), m)
	aware, _ := strat.(strategy.AuraAware)

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
	}, rand.New(rand.NewSource(time.Now().UnixNano())))
	account := paper.NewAccount(cfg.Paper.StartingCash, cfg.Paper.MaxPositionPerSymbol)
	exec := execution.NewExecutor(log)
	ledger := paper.NewLedger(256)

	recorders := []paper.FillRecorder{ledger}
	if cfg.Paper.FillsPath != "" {
		recorder, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer recorder.Close()
		recorders = append(recorders, recorder)
	}

	feed := buildFeed(cfg, log)
	if cfg.Exchange.Provider == exchange.ProviderDexScreener && cfg.Exchange.Discovery.Enabled {
		discovery := exchange.NewDexScreenerDiscovery(log, feed, cfg.Exchange.Symbols, cfg.Exchange.DexScreener, cfg.Exchange.Discovery)
		discovery.Start(ctx)
	}
	collector := social.NewCollector(
		cfg.Social.Provider,
		cfg.Social.BaseURL,
		cfg.Social.Keywords,
		log,
		social.WithPollInterval(time.Duration(cfg.Social.PollInterval)*time.Millisecond),
		social.WithBearerToken(cfg.SocialBearerToken()),
		social.WithPageLimit(cfg.Social.PageLimit),
		social.WithWindow(time.Duration(cfg.Social.WindowSecs)*time.Second),
		social.WithMinScore(cfg.Social.MinScore),
	)

	ticks := make(chan sig.Tick, 1024)
	readings := make(chan social.Reading, 256)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()
	go func() {
		if err := collector.Run(ctx, readings); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("social collector stopped")
			cancel()
		}
	}()

	marks := map[string]float64{}
	log.Info().Str("strategy", strat.Name()).Msg("paper engine started")
	for {
		select {
		case <-ctx.Done():
			snap := account.Snapshot(marks)
			log.Info().
				Float64("equity", snap.Equity).
				Float64("realized", snap.RealizedPnL).
				Int("fills", len(ledger.Snapshot())).
				Msg("shutting down")
			return

		case reading := <-readings:
			if aware != nil {
				aware.OnAura(reading.Keyword, reading.Score, reading.Mentions)
			}

		case tk := <-ticks:
			marks[tk.Symbol] = tk.Price
			snap := account.Snapshot(marks)
			metrics.Equity.Set(snap.Equity)
			manager.MarkEquity(snap.Equity)

			signal := strat.OnTick(tk)
			if signal == nil {
				continue
			}

			order, ok := sizeOrder(cfg, account, tk, signal.Score)
			if !ok {
				continue
			}
			allowed, reason := manager.Allow(order.Qty*tk.Price, account.OpenNotional(marks))
			if !allowed {
				log.Debug().Str("sym", order.Symbol).Str("reason", reason).Msg("order rejected")
				continue
			}
			if err := exec.Submit(order); err != nil {
				log.Error().Err(err).Msg("submit failed")
				continue
			}

			fills, err := sim.Execute(order, tk.Price, tk.Ts)
			if err != nil {
				log.Warn().Err(err).Str("sym", order.Symbol).Msg("simulated execution failed")
				continue
			}
			for _, fill := range fills {
				realized, err := account.Apply(fill)
				if err != nil {
					log.Debug().Err(err).Str("sym", fill.Symbol).Msg("fill rejected by account")
					continue
				}
				for _, rec := range recorders {
					rec.Record(fill)
				}
				if fill.Side == execution.Sell {
					manager.RecordPnL(realized)
				}
				log.Info().
					Str("sym", fill.Symbol).
					Str("side", string(fill.Side)).
					Float64("qty", fill.Qty).
					Float64("px", fill.Price).
					Float64("realized", realized).
					Msg("paper fill")
			}
		}
	}
}

// sizeOrder keeps the account long-only: bullish signals open or add, bearish
// signals close whatever is held.
func sizeOrder(cfg *config.Config, account *paper.Account, tk sig.Tick, score float64) (execution.Order, bool) {
	if score > 0 {
		notional := cfg.Risk.MaxNotionalPerTrade
		if notional <= 0 {
			notional = 10
		}
		if cfg.Paper.MaxPositionNotionalUSD > 0 && notional > cfg.Paper.MaxPositionNotionalUSD {
			notional = cfg.Paper.MaxPositionNotionalUSD
		}
		if notional > account.AvailableCash() {
			return execution.Order{}, false
		}
		return execution.Order{Symbol: tk.Symbol, Side: execution.Buy, Qty: notional / tk.Price, Price: tk.Price}, true
	}
	held := account.Position(tk.Symbol)
	if held <= 0 {
		return execution.Order{}, false
	}
	return execution.Order{Symbol: tk.Symbol, Side: execution.Sell, Qty: held, Price: tk.Price}, true
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

func buildFeed(cfg *config.Config, log zerolog.Logger) *exchange.Feed {
	opts := []exchange.Option{
		exchange.WithPollInterval(time.Duration(cfg.Exchange.DexScreener.PollInterval) * time.Millisecond),
		exchange.WithDexScreenerConfig(cfg.Exchange.DexScreener.BaseURL, cfg.Exchange.DexScreener.DefaultChain),
	}
	if cfg.Exchange.Provider == exchange.ProviderPumpFun {
		listener := chain.NewLaunchListener(cfg.Chain.WssURL, cfg.Chain.Commitment, log)
		client := chain.NewClient(
			cfg.Chain.RpcURL,
			cfg.Chain.Commitment,
			log,
			chain.WithAccountRetries(cfg.Chain.MaxAccountRetries, time.Duration(cfg.Chain.RetryDelayMs)*time.Millisecond),
		)
		opts = append(opts,
			exchange.WithPumpFun(listener, client),
			exchange.WithCurveTracking(time.Duration(cfg.Chain.CurvePollMs)*time.Millisecond, cfg.Chain.MaxTracked, cfg.Chain.MinInitialPrice),
		)
	}
	return exchange.NewFeed(cfg.Exchange.Provider, cfg.Exchange.Symbols, log, opts...)
}
