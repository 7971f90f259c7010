// Package chain collects on-chain data for pump.fun launches over a Solana node.
package chain

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
)

const (
	// LamportsPerSol converts lamport-denominated reserves into SOL.
	LamportsPerSol = 1_000_000_000
	// TokenDecimals is the pump.fun token mint decimal count.
	TokenDecimals = 6
)

// PumpFunProgramID is the pump.fun bonding curve program.
var PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

// curveDiscriminator prefixes every bonding curve account (little-endian u64).
var curveDiscriminator = func() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 6966180631402821399)
	return b
}()

// curveV2MinLen is the account size beyond which the creator field is present.
const curveV2MinLen = 150

// CurveState is the decoded bonding curve account for one token.
type CurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              *solana.PublicKey // only on the extended layout
}

// ParseCurveState decodes a raw bonding curve account, accepting both layouts.
func ParseCurveState(data []byte) (*CurveState, error) {
	if len(data) < 8+41 {
		return nil, fmt.Errorf("curve account too short: %d bytes", len(data))
	}
	for i, b := range curveDiscriminator {
		if data[i] != b {
			return nil, fmt.Errorf("invalid curve state discriminator")
		}
	}

	dec := bin.NewBorshDecoder(data[8:])
	state := &CurveState{}
	fields := []*uint64{
		&state.VirtualTokenReserves,
		&state.VirtualSolReserves,
		&state.RealTokenReserves,
		&state.RealSolReserves,
		&state.TokenTotalSupply,
	}
	for _, field := range fields {
		v, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("decode curve state: %w", err)
		}
		*field = v
	}
	complete, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("decode curve state: %w", err)
	}
	state.Complete = complete

	// The extended layout appends the creator pubkey; length keys the version.
	if len(data) > curveV2MinLen {
		raw, err := dec.ReadNBytes(32)
		if err != nil {
			return nil, fmt.Errorf("decode curve creator: %w", err)
		}
		creator := solana.PublicKeyFromBytes(raw)
		state.Creator = &creator
	}
	return state, nil
}

// PriceSOL derives the spot price in SOL from virtual reserves; zero reserves price at 0.
func (s *CurveState) PriceSOL() float64 {
	if s.VirtualTokenReserves == 0 {
		return 0
	}
	lamportsPerToken := float64(s.VirtualSolReserves) / float64(s.VirtualTokenReserves)
	return lamportsPerToken * pow10(TokenDecimals) / LamportsPerSol
}

// DeriveCurveAddress computes the bonding curve PDA for a mint. Deriving from the
// mint is more reliable than trusting the address carried in the launch event.
func DeriveCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint.Bytes()},
		PumpFunProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive curve address: %w", err)
	}
	return addr, nil
}

func pow10(n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
