package meteora

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/domain"
)

// PoolStateSize is the encoded size of PoolState.
const PoolStateSize = 7*solana.PublicKeyLength + 1 + 1 + 2*solana.PublicKeyLength

// PoolAccountDiscriminator prefixes Pool accounts written by the anchor program.
var PoolAccountDiscriminator = accountDiscriminator("Pool")

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// PoolState is the leading part of a dynamic AMM pool account.
type PoolState struct {
	LPMint            solana.PublicKey
	TokenAMint        solana.PublicKey
	TokenBMint        solana.PublicKey
	AVault            solana.PublicKey
	BVault            solana.PublicKey
	AVaultLP          solana.PublicKey
	BVaultLP          solana.PublicKey
	AVaultLPBump      uint8
	Enabled           bool
	ProtocolTokenAFee solana.PublicKey
	ProtocolTokenBFee solana.PublicKey
}

// DecodePoolState decodes account data. Data may carry the anchor account
// discriminator; bytes after the layout are ignored.
func DecodePoolState(data []byte) (*PoolState, error) {
	if len(data) >= len(PoolAccountDiscriminator)+PoolStateSize &&
		bytes.Equal(data[:len(PoolAccountDiscriminator)], PoolAccountDiscriminator[:]) {
		data = data[len(PoolAccountDiscriminator):]
	}
	if len(data) < PoolStateSize {
		return nil, fmt.Errorf("%w: pool account is %d bytes, need %d", domain.ErrDecode, len(data), PoolStateSize)
	}

	var state PoolState
	if err := bin.NewBorshDecoder(data[:PoolStateSize]).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: pool account: %w", domain.ErrDecode, err)
	}
	return &state, nil
}

// EncodePoolState encodes state without the account discriminator.
func EncodePoolState(state *PoolState) ([]byte, error) {
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("encode pool state: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePoolAccount encodes state as the program stores it, discriminator first.
func EncodePoolAccount(state *PoolState) ([]byte, error) {
	body, err := EncodePoolState(state)
	if err != nil {
		return nil, err
	}
	return append(PoolAccountDiscriminator[:], body...), nil
}
