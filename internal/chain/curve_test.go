package chain

import (
	"encoding/binary"
	"math"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

func curveAccountBytes(t *testing.T, vTok, vSol, rTok, rSol, supply uint64, complete bool, creator []byte, padTo int) []byte {
	t.Helper()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 6966180631402821399)
	for _, v := range []uint64{vTok, vSol, rTok, rSol, supply} {
		next := make([]byte, 8)
		binary.LittleEndian.PutUint64(next, v)
		buf = append(buf, next...)
	}
	if complete {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	if creator != nil {
		buf = append(buf, creator...)
	}
	for len(buf) < padTo {
		buf = append(buf, 0)
	}
	return buf
}

func TestParseCurveStateV1(t *testing.T) {
	data := curveAccountBytes(t, 1_000_000, 2_000_000, 500_000, 400_000, 10_000_000, false, nil, 0)
	state, err := ParseCurveState(data)
	if err != nil {
		t.Fatalf("ParseCurveState returned error: %v", err)
	}
	if state.VirtualTokenReserves != 1_000_000 || state.VirtualSolReserves != 2_000_000 {
		t.Fatalf("unexpected virtual reserves: %+v", state)
	}
	if state.TokenTotalSupply != 10_000_000 {
		t.Fatalf("unexpected supply: %d", state.TokenTotalSupply)
	}
	if state.Complete {
		t.Fatalf("expected incomplete curve")
	}
	if state.Creator != nil {
		t.Fatalf("v1 layout should not carry a creator")
	}
}

func TestParseCurveStateV2Creator(t *testing.T) {
	creator := make([]byte, 32)
	creator[0] = 7
	data := curveAccountBytes(t, 1, 2, 3, 4, 5, true, creator, 151)
	state, err := ParseCurveState(data)
	if err != nil {
		t.Fatalf("ParseCurveState returned error: %v", err)
	}
	if !state.Complete {
		t.Fatalf("expected complete curve")
	}
	if state.Creator == nil {
		t.Fatalf("expected creator on extended layout")
	}
	expected := solana.PublicKeyFromBytes(creator)
	if !state.Creator.Equals(expected) {
		t.Fatalf("creator mismatch: %s", state.Creator)
	}
}

func TestParseCurveStateRejectsBadDiscriminator(t *testing.T) {
	data := curveAccountBytes(t, 1, 2, 3, 4, 5, false, nil, 0)
	data[0] ^= 0xFF
	if _, err := ParseCurveState(data); err == nil {
		t.Fatalf("expected discriminator error")
	}
}

func TestPriceSOL(t *testing.T) {
	state := &CurveState{VirtualTokenReserves: 1_000_000_000_000, VirtualSolReserves: 1_000_000_000}
	got := state.PriceSOL()
	if math.Abs(got-1e-6) > 1e-12 {
		t.Fatalf("expected price 1e-6 SOL, got %.12f", got)
	}

	empty := &CurveState{}
	if empty.PriceSOL() != 0 {
		t.Fatalf("expected zero price for empty reserves")
	}
}

func TestDeriveCurveAddressDeterministic(t *testing.T) {
	mint := solana.PublicKeyFromBytes(append(make([]byte, 31), 1))
	a, err := DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("DeriveCurveAddress returned error: %v", err)
	}
	b, err := DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("DeriveCurveAddress returned error: %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("expected deterministic PDA, got %s vs %s", a, b)
	}
	if a.IsZero() {
		t.Fatalf("expected nonzero PDA")
	}
}
