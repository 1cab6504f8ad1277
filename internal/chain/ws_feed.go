package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/domain"
)

const transactionNotificationMethod = "transactionNotification"

// WSFeedConfig configures the websocket transaction feed.
type WSFeedConfig struct {
	Endpoint string
	// AuthHeader carries AuthToken on the handshake request.
	AuthHeader string
	AuthToken  string

	Filter     TransactionFilter
	Commitment rpc.CommitmentType

	// ConnectTimeout bounds dial plus subscription confirmation.
	ConnectTimeout time.Duration
	// ReadTimeout is the longest silence tolerated between messages or pongs.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing frames.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
}

// DefaultWSFeedConfig returns default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		AuthHeader:     "x-token",
		Commitment:     rpc.CommitmentProcessed,
		ConnectTimeout: 15 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

// WSFeed implements TransactionFeed over a JSON-RPC websocket
// transactionSubscribe stream.
type WSFeed struct {
	config   WSFeedConfig
	log      logrus.FieldLogger
	observer FeedObserver
}

var _ TransactionFeed = (*WSFeed)(nil)

// NewWSFeed creates a feed. observer may be nil.
func NewWSFeed(config WSFeedConfig, log logrus.FieldLogger, observer FeedObserver) *WSFeed {
	def := DefaultWSFeedConfig()
	if config.AuthHeader == "" {
		config.AuthHeader = def.AuthHeader
	}
	if config.Commitment == "" {
		config.Commitment = def.Commitment
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	return &WSFeed{config: config, log: log, observer: observer}
}

// Consume dials the endpoint, subscribes and drives handler until ctx is
// cancelled or the connection fails.
func (f *WSFeed) Consume(ctx context.Context, handler Handler) error {
	conn, err := f.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblocks ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var writeMu sync.Mutex

	subID, err := f.subscribe(conn, &writeMu)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	f.log.WithField("subscription", subID).Info("transaction feed subscribed")

	// Pongs count as liveness on quiet streams.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go f.pingLoop(conn, &writeMu, done)

	for {
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read feed: %w", domain.ErrTransport, err)
		}

		ev, ok, err := decodeNotification(message, subID)
		if err != nil {
			f.observe(false)
			f.log.WithError(err).Debug("skipping undecodable feed message")
			continue
		}
		if !ok {
			continue
		}
		f.observe(true)
		handler(ctx, ev)
	}
}

func (f *WSFeed) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: f.config.ConnectTimeout,
	}

	header := http.Header{}
	if f.config.AuthToken != "" {
		header.Set(f.config.AuthHeader, f.config.AuthToken)
	}

	dialCtx, cancel := context.WithTimeout(ctx, f.config.ConnectTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, f.config.Endpoint, header)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: websocket dial: %w", domain.ErrTransport, err)
	}
	return conn, nil
}

// subscribe sends transactionSubscribe and waits for the subscription id.
func (f *WSFeed) subscribe(conn *websocket.Conn, writeMu *sync.Mutex) (int64, error) {
	const reqID = 1

	filter := map[string]interface{}{
		"vote":   f.config.Filter.Vote,
		"failed": f.config.Filter.Failed,
	}
	if len(f.config.Filter.AccountInclude) > 0 {
		filter["accountInclude"] = f.config.Filter.AccountInclude
	}
	if len(f.config.Filter.AccountExclude) > 0 {
		filter["accountExclude"] = f.config.Filter.AccountExclude
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "transactionSubscribe",
		Params: []interface{}{
			filter,
			map[string]interface{}{
				"commitment":                     f.config.Commitment,
				"encoding":                       "base64",
				"transactionDetails":             "full",
				"showRewards":                    false,
				"maxSupportedTransactionVersion": 0,
			},
		},
	}

	writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	err := conn.WriteJSON(req)
	writeMu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%w: write subscribe: %w", domain.ErrTransport, err)
	}

	conn.SetReadDeadline(time.Now().Add(f.config.ConnectTimeout))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("%w: await subscription: %w", domain.ErrTransport, err)
		}

		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err != nil || resp.ID != reqID {
			continue
		}
		if resp.Error != nil {
			return 0, fmt.Errorf("%w: subscription rejected: code=%d msg=%s",
				domain.ErrTransport, resp.Error.Code, resp.Error.Message)
		}

		var subID int64
		if err := json.Unmarshal(resp.Result, &subID); err != nil {
			return 0, fmt.Errorf("%w: subscription id: %w", domain.ErrTransport, err)
		}
		return subID, nil
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (f *WSFeed) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				// The read loop observes the broken connection.
				return
			}
		}
	}
}

func (f *WSFeed) observe(decoded bool) {
	if f.observer != nil {
		f.observer.StreamMessage(decoded)
	}
}

// decodeNotification turns a transactionNotification frame into a RawEvent.
// ok is false for frames that are not notifications of subID.
func decodeNotification(message []byte, subID int64) (RawEvent, bool, error) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil {
		return RawEvent{}, false, fmt.Errorf("%w: frame: %w", domain.ErrDecode, err)
	}
	if notif.Method != transactionNotificationMethod || notif.Params == nil {
		return RawEvent{}, false, nil
	}
	if notif.Params.Subscription != subID {
		return RawEvent{}, false, nil
	}

	result := notif.Params.Result
	if result.Transaction.Transaction == nil {
		return RawEvent{}, false, fmt.Errorf("%w: notification without transaction", domain.ErrDecode)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(result.Transaction.Transaction.GetBinary()))
	if err != nil {
		return RawEvent{}, false, fmt.Errorf("%w: transaction: %w", domain.ErrDecode, err)
	}

	ev := RawEvent{
		Slot:        result.Slot,
		Transaction: tx,
		Meta:        result.Transaction.Meta,
	}
	if result.Signature != "" {
		sig, err := solana.SignatureFromBase58(result.Signature)
		if err != nil {
			return RawEvent{}, false, fmt.Errorf("%w: signature: %w", domain.ErrDecode, err)
		}
		ev.Signature = sig
	} else if len(tx.Signatures) > 0 {
		ev.Signature = tx.Signatures[0]
	}

	return ev, true, nil
}

// IsTransportError reports whether err ended a Consume call because of the
// connection rather than cancellation.
func IsTransportError(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *wsError        `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsTransactionPayload `json:"result"`
}

type wsTransactionPayload struct {
	Signature   string        `json:"signature"`
	Slot        uint64        `json:"slot"`
	Transaction wsTransaction `json:"transaction"`
}

type wsTransaction struct {
	Transaction *rpc.DataBytesOrJSON `json:"transaction"`
	Meta        *rpc.TransactionMeta `json:"meta"`
}
