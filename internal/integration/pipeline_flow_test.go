package integration

import (
	"context"
	"math/rand"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/backtest"
	"github.com/BSmick6/aurabot/internal/chain"
	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/exchange"
	"github.com/BSmick6/aurabot/internal/execution"
	"github.com/BSmick6/aurabot/internal/paper"
	"github.com/BSmick6/aurabot/internal/risk"
	sig "github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/social"
	"github.com/BSmick6/aurabot/internal/strategy"
)

// Runs the stub feed and stub social collector through the synchronizer into
// a real store, then replays the collected window through the backtest engine.
func TestCollectAndReplayFlow(t *testing.T) {
	store, err := dataset.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	feed := exchange.NewFeed(exchange.ProviderStub, []string{"WIFSOL"}, zerolog.Nop())
	collector := social.NewCollector(social.ProviderStub, "", []string{"WIF"}, zerolog.Nop())

	ticks := make(chan sig.Tick, 64)
	readings := make(chan social.Reading, 64)
	go func() { _ = feed.Run(ctx, ticks) }()
	go func() { _ = collector.Run(ctx, readings) }()

	syncer := dataset.NewSynchronizer(zerolog.Nop(), []dataset.Writer{store})
	_ = syncer.Run(ctx, ticks, readings)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected the pipeline to persist samples")
	}

	strat := strategy.NewOBIMomentum(0.05, 60)
	manager := risk.NewManager(risk.Limits{MaxNotionalPerTrade: 50})
	sim := execution.NewSimulator(execution.SimulatorConfig{SlippageBps: 5}, rand.New(rand.NewSource(1)))
	account := paper.NewAccount(1000, 0)
	ledger := paper.NewLedger(32)

	engine := backtest.NewEngine(zerolog.Nop(), store, strat, manager, sim, account, backtest.Config{Seed: 1, OrderNotional: 5}, ledger)
	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("backtest run: %v", err)
	}
	if report.Samples != count {
		t.Fatalf("replayed %d of %d stored samples", report.Samples, count)
	}
	if report.Signals == 0 {
		t.Fatalf("expected the rising stub series to produce signals")
	}
	if len(ledger.Snapshot()) != report.Fills {
		t.Fatalf("ledger has %d fills, report says %d", len(ledger.Snapshot()), report.Fills)
	}
}

type launchOnce struct {
	launch chain.Launch
}

func (s *launchOnce) Listen(ctx context.Context, out chan<- chain.Launch) error {
	select {
	case out <- s.launch:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ctx.Done()
	return ctx.Err()
}

type fixedCurve struct {
	state chain.CurveState
}

func (c *fixedCurve) FetchCurveState(ctx context.Context, curve solana.PublicKey) (*chain.CurveState, error) {
	state := c.state
	return &state, nil
}

// Runs a fresh launch through the on-chain feed into the store and checks the
// persisted rows still carry the bonding curve reserves the poller reported.
func TestCollectorPersistsCurveReserves(t *testing.T) {
	store, err := dataset.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	mint := solana.PublicKeyFromBytes(append(make([]byte, 31), 7))
	curveAddr, err := chain.DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("DeriveCurveAddress: %v", err)
	}
	state := chain.CurveState{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
	}
	launch := chain.Launch{
		Name:   "Test Coin",
		Symbol: "TEST",
		Mint:   mint,
		Curve:  curveAddr,
		Ts:     time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	feed := exchange.NewFeed(exchange.ProviderPumpFun, nil, zerolog.Nop(),
		exchange.WithPumpFun(&launchOnce{launch: launch}, &fixedCurve{state: state}),
		exchange.WithCurveTracking(50*time.Millisecond, 4, 0),
	)

	ticks := make(chan sig.Tick, 64)
	readings := make(chan social.Reading)
	go func() { _ = feed.Run(ctx, ticks) }()

	syncer := dataset.NewSynchronizer(zerolog.Nop(), []dataset.Writer{store},
		dataset.WithFlushInterval(100*time.Millisecond))
	_ = syncer.Run(ctx, ticks, readings)

	samples, err := store.Range(context.Background(), time.Time{}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected persisted samples from the curve poller")
	}
	for _, sample := range samples {
		if sample.VirtualTokenReserves != state.VirtualTokenReserves {
			t.Fatalf("sample %s lost token reserves: got %d", sample.Symbol, sample.VirtualTokenReserves)
		}
		if sample.VirtualSolReserves != state.VirtualSolReserves {
			t.Fatalf("sample %s lost SOL reserves: got %d", sample.Symbol, sample.VirtualSolReserves)
		}
		if sample.CurveComplete {
			t.Fatalf("live curve persisted as complete: %+v", sample)
		}
	}
}
