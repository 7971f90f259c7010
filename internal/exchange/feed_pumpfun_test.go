package exchange

import (
	"context"
	"sync"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/chain"
	"github.com/BSmick6/aurabot/internal/signal"
)

type fakeLaunchSource struct {
	launches []chain.Launch
}

func (s *fakeLaunchSource) Listen(ctx context.Context, out chan<- chain.Launch) error {
	for _, launch := range s.launches {
		select {
		case out <- launch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeCurveFetcher struct {
	mu     sync.Mutex
	states []*chain.CurveState
	calls  int
}

func (f *fakeCurveFetcher) FetchCurveState(ctx context.Context, curve solana.PublicKey) (*chain.CurveState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.states) {
		idx = len(f.states) - 1
	}
	f.calls++
	return f.states[idx], nil
}

func testLaunch(t *testing.T) chain.Launch {
	t.Helper()
	mint := solana.PublicKeyFromBytes(append(make([]byte, 31), 9))
	derived, err := chain.DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("DeriveCurveAddress returned error: %v", err)
	}
	return chain.Launch{
		Name:    "Test Coin",
		Symbol:  "TEST",
		Mint:    mint,
		Curve:   derived,
		Creator: solana.PublicKeyFromBytes(append(make([]byte, 31), 2)),
		Ts:      time.Now().UTC(),
	}
}

func TestRunPumpFunEmitsLaunchTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launch := testLaunch(t)
	state := &chain.CurveState{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
	}
	feed := NewFeed(ProviderPumpFun, nil, zerolog.Nop(),
		WithPumpFun(&fakeLaunchSource{launches: []chain.Launch{launch}}, &fakeCurveFetcher{states: []*chain.CurveState{state}}),
		WithCurveTracking(50*time.Millisecond, 4, 0),
	)

	ticks := make(chan signal.Tick, 4)
	go func() {
		_ = feed.Run(ctx, ticks)
	}()

	select {
	case tk := <-ticks:
		if tk.Mint != launch.Mint.String() {
			t.Fatalf("unexpected mint %s", tk.Mint)
		}
		if tk.Price <= 0 {
			t.Fatalf("expected positive launch price, got %.12f", tk.Price)
		}
		if tk.Side != 1 {
			t.Fatalf("launch tick should read as a buy")
		}
		if tk.VirtualTokenReserves != state.VirtualTokenReserves || tk.VirtualSolReserves != state.VirtualSolReserves {
			t.Fatalf("tick dropped curve reserves: vtok=%d vsol=%d", tk.VirtualTokenReserves, tk.VirtualSolReserves)
		}
		if tk.CurveComplete {
			t.Fatal("fresh curve should not read as complete")
		}
		cancel()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for launch tick")
	}
}

func TestRunPumpFunEmitsTerminalTickOnGraduation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launch := testLaunch(t)
	live := &chain.CurveState{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
	}
	graduated := &chain.CurveState{
		VirtualTokenReserves: 279_900_000_000_000,
		VirtualSolReserves:   115_005_000_000,
		Complete:             true,
	}
	feed := NewFeed(ProviderPumpFun, nil, zerolog.Nop(),
		WithPumpFun(
			&fakeLaunchSource{launches: []chain.Launch{launch}},
			&fakeCurveFetcher{states: []*chain.CurveState{live, graduated}},
		),
		WithCurveTracking(20*time.Millisecond, 4, 0),
	)

	ticks := make(chan signal.Tick, 8)
	go func() {
		_ = feed.Run(ctx, ticks)
	}()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case tk := <-ticks:
			if !tk.CurveComplete {
				continue
			}
			if tk.VirtualSolReserves != graduated.VirtualSolReserves {
				t.Fatalf("terminal tick lost final reserves: vsol=%d", tk.VirtualSolReserves)
			}
			if tk.Price <= 0 {
				t.Fatalf("terminal tick should keep the last polled price, got %.12f", tk.Price)
			}
			cancel()
			return
		case <-deadline:
			t.Fatal("timed out waiting for graduation tick")
		}
	}
}

func TestRunPumpFunRequiresWiring(t *testing.T) {
	feed := NewFeed(ProviderPumpFun, nil, zerolog.Nop())
	err := feed.Run(context.Background(), make(chan signal.Tick))
	if err == nil {
		t.Fatal("expected error for unwired pumpfun feed")
	}
}
