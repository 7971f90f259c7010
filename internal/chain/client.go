package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAccountRetries = 5
	defaultRetryDelay        = 1500 * time.Millisecond
)

// Client wraps a Solana RPC connection with the retry discipline the collector needs.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// ClientOption tunes Client construction.
type ClientOption func(*Client)

// WithAccountRetries overrides how often a curve account fetch is retried.
func WithAccountRetries(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient builds a Client against the given RPC URL and commitment string.
func NewClient(rpcURL, commitment string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		rpc:        rpc.New(rpcURL),
		commitment: ParseCommitment(commitment),
		maxRetries: defaultMaxAccountRetries,
		retryDelay: defaultRetryDelay,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseCommitment maps a config string onto an RPC commitment, defaulting to confirmed.
func ParseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(strings.TrimSpace(commitment)) {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// FetchCurveState reads and decodes a bonding curve account. Fresh launches lag RPC
// propagation, so not-found and empty-data responses are retried on a fixed delay.
func (c *Client) FetchCurveState(ctx context.Context, curve solana.PublicKey) (*CurveState, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		out, err := c.rpc.GetAccountInfoWithOpts(ctx, curve, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
		})
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Str("curve", curve.String()).
				Int("attempt", attempt+1).Int("max", c.maxRetries).
				Msg("curve account not ready, retrying")
			continue
		}
		if out == nil || out.Value == nil || out.Value.Data == nil {
			lastErr = fmt.Errorf("no data in bonding curve account %s", curve)
			continue
		}
		raw := out.Value.Data.GetBinary()
		if len(raw) == 0 {
			lastErr = fmt.Errorf("empty bonding curve account %s", curve)
			continue
		}
		state, err := ParseCurveState(raw)
		if err != nil {
			// A short or mis-prefixed account usually means partial propagation.
			lastErr = err
			continue
		}
		return state, nil
	}
	return nil, fmt.Errorf("fetch curve state after %d attempts: %w", c.maxRetries, lastErr)
}

// RecentSignatures probes connectivity by listing the latest pump.fun transactions.
func (c *Client) RecentSignatures(ctx context.Context, limit int) ([]solana.Signature, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, PumpFunProgramID, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}
	sigs := make([]solana.Signature, 0, len(out))
	for _, tx := range out {
		sigs = append(sigs, tx.Signature)
	}
	return sigs, nil
}
