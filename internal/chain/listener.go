package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/metrics"
)

// Launch describes a freshly created pump.fun token observed on the log stream.
type Launch struct {
	Name      string
	Symbol    string
	URI       string
	Mint      solana.PublicKey
	Curve     solana.PublicKey
	Creator   solana.PublicKey
	Signature string
	Ts        time.Time
}

// createEventDiscriminator prefixes the borsh payload of a pump.fun CreateEvent.
var createEventDiscriminator = []byte{27, 114, 169, 77, 222, 235, 99, 118}

const (
	createLogMarker = "Program log: Instruction: Create"
	programDataTag  = "Program data: "
)

// LaunchListener subscribes to pump.fun program logs over a websocket node endpoint.
type LaunchListener struct {
	wssURL     string
	commitment string
	log        zerolog.Logger
}

// NewLaunchListener builds a listener for the given WSS endpoint.
func NewLaunchListener(wssURL, commitment string, log zerolog.Logger) *LaunchListener {
	c := strings.ToLower(strings.TrimSpace(commitment))
	if c != "processed" && c != "finalized" {
		c = "confirmed"
	}
	return &LaunchListener{wssURL: wssURL, commitment: c, log: log}
}

// Listen streams launches onto out until the context is canceled, reconnecting
// with capped backoff on stream failures.
func (l *LaunchListener) Listen(ctx context.Context, out chan<- Launch) error {
	if l.wssURL == "" {
		return fmt.Errorf("launch listener requires a wss endpoint")
	}
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.consumeLogStream(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Msg("launch stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

type logsSubscribeRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type logsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Signature string          `json:"signature"`
				Err       json.RawMessage `json:"err"`
				Logs      []string        `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (l *LaunchListener) consumeLogStream(ctx context.Context, out chan<- Launch) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.wssURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := logsSubscribeRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []any{
			map[string]any{"mentions": []string{PumpFunProgramID.String()}},
			map[string]any{"commitment": l.commitment},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	l.log.Info().Str("program", PumpFunProgramID.String()).Str("commitment", l.commitment).
		Msg("listening for pump.fun launches")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					l.log.Warn().Err(err).Msg("launch stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var note logsNotification
		if err := json.Unmarshal(message, &note); err != nil {
			l.log.Warn().Err(err).Msg("failed to decode log notification")
			continue
		}
		if note.Method != "logsNotification" {
			continue // subscription ack or unrelated frame
		}
		value := note.Params.Result.Value
		if len(value.Err) > 0 && string(value.Err) != "null" {
			continue
		}
		launch, ok := parseLaunch(value.Logs)
		if !ok {
			continue
		}
		launch.Signature = value.Signature
		launch.Ts = time.Now().UTC()

		select {
		case out <- *launch:
			metrics.LaunchesTotal.Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseLaunch extracts a create event from one transaction's log batch.
func parseLaunch(logs []string) (*Launch, bool) {
	created := false
	for _, line := range logs {
		if strings.Contains(line, createLogMarker) {
			created = true
			break
		}
	}
	if !created {
		return nil, false
	}
	for _, line := range logs {
		idx := strings.Index(line, programDataTag)
		if idx < 0 {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(line[idx+len(programDataTag):])
		if err != nil {
			continue
		}
		launch, err := decodeCreateEvent(raw)
		if err != nil {
			continue
		}
		return launch, true
	}
	return nil, false
}

func decodeCreateEvent(data []byte) (*Launch, error) {
	if len(data) < len(createEventDiscriminator) {
		return nil, fmt.Errorf("event payload too short")
	}
	for i, b := range createEventDiscriminator {
		if data[i] != b {
			return nil, fmt.Errorf("not a create event")
		}
	}

	dec := bin.NewBorshDecoder(data[8:])
	launch := &Launch{}
	for _, field := range []*string{&launch.Name, &launch.Symbol, &launch.URI} {
		s, err := dec.ReadString()
		if err != nil {
			return nil, fmt.Errorf("decode create event string: %w", err)
		}
		*field = s
	}
	for _, field := range []*solana.PublicKey{&launch.Mint, &launch.Curve, &launch.Creator} {
		raw, err := dec.ReadNBytes(32)
		if err != nil {
			return nil, fmt.Errorf("decode create event pubkey: %w", err)
		}
		*field = solana.PublicKeyFromBytes(raw)
	}
	// Newer program versions append more fields; anything trailing is ignored.
	return launch, nil
}
