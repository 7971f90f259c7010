// Binary collector runs the data pipeline: on-chain launches and curve ticks,
// social aura readings, and the synchronizer that persists joined samples.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/chain"
	"github.com/BSmick6/aurabot/internal/config"
	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/exchange"
	"github.com/BSmick6/aurabot/internal/metrics"
	sig "github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/social"
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

	store, err := dataset.Open(cfg.Dataset.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open sample store")
	}
	defer store.Close()

	writers := []dataset.Writer{store}
	if cfg.Dataset.JSONLPath != "" {
		jsonl, err := dataset.NewJSONLWriter(cfg.Dataset.JSONLPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open jsonl writer")
		}
		defer jsonl.Close()
		writers = append(writers, jsonl)
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

	syncer := dataset.NewSynchronizer(
		log,
		writers,
		dataset.WithTolerance(time.Duration(cfg.Dataset.SyncTolerance)*time.Millisecond),
		dataset.WithFlushInterval(time.Duration(cfg.Dataset.FlushInterval)*time.Millisecond),
	)

	log.Info().Str("provider", cfg.Exchange.Provider).Str("db", cfg.Dataset.SQLitePath).Msg("collector started")
	if err := syncer.Run(ctx, ticks, readings); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("synchronizer stopped")
	}
	log.Info().Int("samples", syncer.Emitted()).Msg("collector shut down")
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

		// Connectivity probe before the streams spin up.
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sigs, err := client.RecentSignatures(probeCtx, 10)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("rpc", cfg.Chain.RpcURL).Msg("rpc probe failed")
		} else {
			log.Info().Int("recent_signatures", len(sigs)).Msg("rpc node reachable")
		}

		opts = append(opts,
			exchange.WithPumpFun(listener, client),
			exchange.WithCurveTracking(time.Duration(cfg.Chain.CurvePollMs)*time.Millisecond, cfg.Chain.MaxTracked, cfg.Chain.MinInitialPrice),
		)
	}
	return exchange.NewFeed(cfg.Exchange.Provider, cfg.Exchange.Symbols, log, opts...)
}
