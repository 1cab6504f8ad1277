package sender

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/txbuilder"
)

func testBuilder(t *testing.T) *txbuilder.Builder {
	t.Helper()
	b, err := txbuilder.NewBuilder(txbuilder.TransactionConfig{
		Signer:           solana.NewWallet().PrivateKey,
		ComputeUnitLimit: 200_000,
		ComputeUnitPrice: 100_000,
		TipLamports:      1_000_000,
		BuyAmount:        10_000_000,
		MinAmountOut:     1_000_000,
	}, nil)
	require.NoError(t, err)
	return b
}

func signedTransfer(t *testing.T) *solana.Transaction {
	t.Helper()
	wallet := solana.NewWallet()
	ix, err := system.NewTransferInstruction(1, wallet.PublicKey(), solana.NewWallet().PublicKey()).ValidateAndBuild()
	require.NoError(t, err)

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(wallet.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(wallet.PublicKey()) {
			return &wallet.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

type capturedRequest struct {
	method      string
	auth        string
	contentType string
	tx          *solana.Transaction
}

// relayServer decodes each posted transaction and answers with status and body.
func relayServer(t *testing.T, status int, body string, captured chan<- capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Transaction string `json:"transaction"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Transaction)
		if err != nil {
			http.Error(w, "bad base64", http.StatusBadRequest)
			return
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
		if err != nil {
			http.Error(w, "bad transaction", http.StatusBadRequest)
			return
		}
		if captured != nil {
			captured <- capturedRequest{
				method:      r.Method,
				auth:        r.Header.Get("Authorization"),
				contentType: r.Header.Get("Content-Type"),
				tx:          tx,
			}
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestRelay_Submit(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	server := relayServer(t, http.StatusOK, `{"signature":"ok"}`, captured)
	defer server.Close()

	relay := NewBloxroute(server.URL, "secret", nil)
	tx := signedTransfer(t)

	res, err := relay.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "bloxroute", res.Backend)
	assert.Equal(t, tx.Signatures[0], res.Signature)
	assert.False(t, res.Confirmed)

	req := <-captured
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "Bearer secret", req.auth)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, tx.Signatures, req.tx.Signatures)
}

func TestRelay_SubmitRejected(t *testing.T) {
	server := relayServer(t, http.StatusInternalServerError, "rate limited", nil)
	defer server.Close()

	relay := NewNextBlock(server.URL, "secret", nil)

	res, err := relay.Submit(context.Background(), signedTransfer(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDispatch)

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, "nextblock", dispatchErr.Backend)
	assert.Equal(t, http.StatusInternalServerError, dispatchErr.StatusCode)
	assert.Equal(t, "rate limited", dispatchErr.Body)
	assert.Contains(t, err.Error(), "rate limited")

	assert.Equal(t, solana.Signature{}, res.Signature)
}

func TestRelay_SendBuildsBuy(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	server := relayServer(t, http.StatusOK, "", captured)
	defer server.Close()

	builder := testBuilder(t)
	tipAccount := solana.NewWallet().PublicKey()
	relay := NewRelay(RelayConfig{
		Name: "jito",
		URL:  server.URL,
		Tip:  txbuilder.TipPolicy{Inject: true, Account: tipAccount},
	}, builder)

	mint := solana.NewWallet().PublicKey()
	res, err := relay.Send(context.Background(), SendRequest{
		Blockhash:              solana.Hash{5},
		Token:                  mint,
		BondingCurve:           solana.NewWallet().PublicKey(),
		AssociatedBondingCurve: solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)
	assert.Equal(t, "jito", res.Backend)

	req := <-captured
	assert.Empty(t, req.auth)

	keys := req.tx.Message.AccountKeys
	ixs := req.tx.Message.Instructions
	require.Len(t, ixs, 5)
	assert.Equal(t, txbuilder.PumpProgramID, keys[ixs[4].ProgramIDIndex])
	assert.Equal(t, solana.SystemProgramID, keys[ixs[2].ProgramIDIndex])
	assert.Equal(t, tipAccount, keys[ixs[2].Accounts[1]])
	assert.Equal(t, builder.Owner(), keys[0])
	assert.Equal(t, res.Signature, req.tx.Signatures[0])
}

func TestRelay_SendWithoutBuilder(t *testing.T) {
	relay := NewBloxroute("http://127.0.0.1:0", "", nil)
	_, err := relay.Send(context.Background(), SendRequest{Blockhash: solana.Hash{1}})
	assert.ErrorIs(t, err, domain.ErrBuild)
}

func TestRelay_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	relay := NewRelay(RelayConfig{Name: "slow", URL: server.URL, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	_, err := relay.Submit(context.Background(), signedTransfer(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRelay_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewBloxroute(url, "", nil).Submit(context.Background(), signedTransfer(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}
