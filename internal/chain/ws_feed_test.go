package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-sniper/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// signedTransfer builds a signed one-instruction transaction and its base64 wire form.
func signedTransfer(t *testing.T) (*solana.Transaction, string) {
	t.Helper()

	payer := solana.NewWallet().PrivateKey
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return tx, base64.StdEncoding.EncodeToString(raw)
}

func notification(subID int64, sig solana.Signature, slot uint64, txB64 string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","method":"transactionNotification","params":{"subscription":%d,"result":{"signature":"%s","slot":%d,"transaction":{"transaction":["%s","base64"],"meta":{"err":null,"fee":5000,"preBalances":[],"postBalances":[],"innerInstructions":[],"logMessages":[],"loadedAddresses":{"writable":[],"readonly":[]}}}}}}`,
		subID, sig, slot, txB64)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSFeed_DeliversInOrderAndSkipsBadMessages(t *testing.T) {
	tx1, b64a := signedTransfer(t)
	tx2, b64b := signedTransfer(t)

	var gotReq wsRequest
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-token")
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		if err := json.Unmarshal(msg, &gotReq); err != nil {
			return
		}

		c.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":42}`))
		c.WriteMessage(websocket.TextMessage, []byte(notification(42, tx1.Signatures[0], 10, b64a)))
		c.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		c.WriteMessage(websocket.TextMessage, []byte(notification(42, tx1.Signatures[0], 99, "!!!")))
		c.WriteMessage(websocket.TextMessage, []byte(notification(7, tx1.Signatures[0], 98, b64a)))
		c.WriteMessage(websocket.TextMessage, []byte(notification(42, tx2.Signatures[0], 11, b64b)))
		// Dropping the connection ends the stream with a transport error.
	}))
	defer server.Close()

	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = wsURL(server)
	cfg.AuthToken = "secret"
	cfg.Filter = TransactionFilter{AccountInclude: []string{"Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"}}

	observer := &countingObserver{}
	feed := NewWSFeed(cfg, testLogger(), observer)

	var events []RawEvent
	err := feed.Consume(context.Background(), func(_ context.Context, ev RawEvent) {
		events = append(events, ev)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport), "got %v", err)
	assert.True(t, IsTransportError(err))

	require.Len(t, events, 2)
	assert.Equal(t, uint64(10), events[0].Slot)
	assert.Equal(t, tx1.Signatures[0], events[0].Signature)
	assert.Equal(t, uint64(11), events[1].Slot)
	assert.Equal(t, tx2.Signatures[0], events[1].Signature)
	assert.False(t, events[0].Failed())
	require.NotNil(t, events[0].Transaction)
	assert.Len(t, events[0].Transaction.Message.Instructions, 1)

	assert.Equal(t, 2, observer.decoded())
	assert.Equal(t, 2, observer.failed())

	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "transactionSubscribe", gotReq.Method)
	require.Len(t, gotReq.Params, 2)
	filter, ok := gotReq.Params[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, filter["vote"])
	assert.Equal(t, false, filter["failed"])
	assert.Equal(t, []interface{}{"Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"}, filter["accountInclude"])
	opts, ok := gotReq.Params[1].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "processed", opts["commitment"])
	assert.Equal(t, "base64", opts["encoding"])
}

func TestWSFeed_SubscriptionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		c.WriteMessage(websocket.TextMessage,
			[]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`))
		// Hold the connection until the client leaves.
		c.ReadMessage()
	}))
	defer server.Close()

	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = wsURL(server)
	feed := NewWSFeed(cfg, testLogger(), nil)

	err := feed.Consume(context.Background(), func(context.Context, RawEvent) {
		t.Error("handler must not be called")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "Method not found")
}

func TestWSFeed_DialFailure(t *testing.T) {
	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = "ws://127.0.0.1:1"
	cfg.ConnectTimeout = time.Second
	feed := NewWSFeed(cfg, testLogger(), nil)

	err := feed.Consume(context.Background(), func(context.Context, RawEvent) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestWSFeed_CancelReturnsContextError(t *testing.T) {
	subscribed := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		c.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":5}`))
		close(subscribed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = wsURL(server)
	feed := NewWSFeed(cfg, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- feed.Consume(ctx, func(context.Context, RawEvent) {})
	}()

	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not received")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsTransportError(err))
	case <-time.After(5 * time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

// quietServer confirms the subscription and then sends nothing. Pings are
// answered only when answerPings is set.
func quietServer(answerPings bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		if !answerPings {
			c.SetPingHandler(func(string) error { return nil })
		}
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		c.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":9}`))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWSFeed_PongsKeepQuietStreamAlive(t *testing.T) {
	server := quietServer(true)
	defer server.Close()

	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = wsURL(server)
	cfg.ReadTimeout = 400 * time.Millisecond
	cfg.PingInterval = 100 * time.Millisecond
	feed := NewWSFeed(cfg, testLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := feed.Consume(ctx, func(context.Context, RawEvent) {})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsTransportError(err), "got %v", err)
	assert.GreaterOrEqual(t, time.Since(start), 1400*time.Millisecond)
}

func TestWSFeed_ReadTimeoutWithoutPongs(t *testing.T) {
	server := quietServer(false)
	defer server.Close()

	cfg := DefaultWSFeedConfig()
	cfg.Endpoint = wsURL(server)
	cfg.ReadTimeout = 300 * time.Millisecond
	cfg.PingInterval = 100 * time.Millisecond
	feed := NewWSFeed(cfg, testLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := feed.Consume(ctx, func(context.Context, RawEvent) {})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NoError(t, ctx.Err())
}

type countingObserver struct {
	mu   sync.Mutex
	ok   int
	fail int
}

func (o *countingObserver) StreamMessage(decoded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if decoded {
		o.ok++
	} else {
		o.fail++
	}
}

func (o *countingObserver) decoded() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ok
}

func (o *countingObserver) failed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fail
}
