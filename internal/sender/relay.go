package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/txbuilder"
)

// Default configuration values.
const (
	DefaultAttemptTimeout = 10 * time.Second
	maxResponseBody       = 64 << 10
)

// RelayConfig describes one relay endpoint.
type RelayConfig struct {
	Name      string
	URL       string
	AuthToken string
	Tip       txbuilder.TipPolicy
	// Timeout bounds one submission; zero means DefaultAttemptTimeout.
	Timeout time.Duration
}

// Relay posts base64 transactions as JSON to an HTTP relay.
// It never retries.
type Relay struct {
	cfg     RelayConfig
	builder *txbuilder.Builder
	client  *http.Client
}

var (
	_ Sender    = (*Relay)(nil)
	_ Submitter = (*Relay)(nil)
)

// RelayOption configures Relay.
type RelayOption func(*Relay)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) RelayOption {
	return func(r *Relay) {
		r.client = client
	}
}

// WithName overrides the backend name.
func WithName(name string) RelayOption {
	return func(r *Relay) {
		if name != "" {
			r.cfg.Name = name
		}
	}
}

// WithTimeout sets the per-submission timeout.
func WithTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.cfg.Timeout = d
		}
	}
}

// WithTipPolicy overrides the tip policy used by Send.
func WithTipPolicy(policy txbuilder.TipPolicy) RelayOption {
	return func(r *Relay) {
		r.cfg.Tip = policy
	}
}

// NewRelay creates a relay sender. builder may be nil when only Submit is used.
func NewRelay(cfg RelayConfig, builder *txbuilder.Builder, opts ...RelayOption) *Relay {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAttemptTimeout
	}
	r := &Relay{
		cfg:     cfg,
		builder: builder,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBloxroute creates a relay for a bloXroute submit endpoint.
func NewBloxroute(url, authToken string, builder *txbuilder.Builder, opts ...RelayOption) *Relay {
	return NewRelay(RelayConfig{Name: "bloxroute", URL: url, AuthToken: authToken, Tip: txbuilder.NoTip}, builder, opts...)
}

// NewNextBlock creates a relay for a NextBlock submit endpoint.
func NewNextBlock(url, authToken string, builder *txbuilder.Builder, opts ...RelayOption) *Relay {
	return NewRelay(RelayConfig{Name: "nextblock", URL: url, AuthToken: authToken, Tip: txbuilder.NoTip}, builder, opts...)
}

// Name returns the backend name.
func (r *Relay) Name() string {
	return r.cfg.Name
}

// Send builds a buy with the relay's tip policy and submits it.
func (r *Relay) Send(ctx context.Context, req SendRequest) (Result, error) {
	if r.builder == nil {
		return Result{}, fmt.Errorf("%w: %s has no transaction builder", domain.ErrBuild, r.cfg.Name)
	}
	tx, err := r.builder.BuildBuy(r.cfg.Tip, req.Blockhash, req.Token, req.BondingCurve, req.AssociatedBondingCurve)
	if err != nil {
		return Result{}, err
	}
	return r.Submit(ctx, tx)
}

type relayRequest struct {
	Transaction string `json:"transaction"`
}

// Submit posts tx. A non-2xx response returns *DispatchError carrying the body.
func (r *Relay) Submit(ctx context.Context, tx *solana.Transaction) (Result, error) {
	if len(tx.Signatures) == 0 {
		return Result{}, fmt.Errorf("%w: unsigned transaction", domain.ErrBuild)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return Result{}, fmt.Errorf("%w: serialize: %w", domain.ErrBuild, err)
	}
	payload, err := json.Marshal(relayRequest{Transaction: base64.StdEncoding.EncodeToString(raw)})
	if err != nil {
		return Result{}, fmt.Errorf("%w: marshal request: %w", domain.ErrBuild, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: create request: %w", domain.ErrTransport, r.cfg.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.AuthToken)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", domain.ErrTransport, r.cfg.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: read response: %w", domain.ErrTransport, r.cfg.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &DispatchError{
			Backend:    r.cfg.Name,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return Result{
		Backend:   r.cfg.Name,
		Signature: tx.Signatures[0],
		Latency:   time.Since(start),
	}, nil
}
