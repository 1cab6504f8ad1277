package discovery

import (
	"bytes"
	"crypto/sha256"
	"time"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/domain"
)

// Account positions in initialize_permissionless_pool.
const (
	poolAccountIndex   = 1
	tokenAAccountIndex = 5
	tokenBAccountIndex = 6

	minPoolInitAccounts = tokenBAccountIndex + 1
)

// MeteoraAMMProgramID is the Meteora dynamic AMM program.
var MeteoraAMMProgramID = solana.MustPublicKeyFromBase58("Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB")

// InitializePermissionlessPool is the anchor discriminator of the pool-init
// instruction: sha256("global:initialize_permissionless_pool")[:8].
var InitializePermissionlessPool = AnchorDiscriminator("initialize_permissionless_pool")

// AnchorDiscriminator returns the 8-byte anchor instruction discriminator for name.
func AnchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// PoolDetector matches pool-init instructions of one program.
type PoolDetector struct {
	programID     solana.PublicKey
	discriminator [8]byte
	now           func() time.Time
}

// NewPoolDetector creates a detector for programID and discriminator.
func NewPoolDetector(programID solana.PublicKey, discriminator [8]byte) *PoolDetector {
	return &PoolDetector{
		programID:     programID,
		discriminator: discriminator,
		now:           time.Now,
	}
}

// NewMeteoraDetector creates a detector for Meteora initialize_permissionless_pool.
func NewMeteoraDetector() *PoolDetector {
	return NewPoolDetector(MeteoraAMMProgramID, InitializePermissionlessPool)
}

// ProgramID returns the program the detector matches.
func (d *PoolDetector) ProgramID() solana.PublicKey {
	return d.programID
}

// Matches reports whether ix is a pool-init instruction of the target program.
func (d *PoolDetector) Matches(ix Instruction) bool {
	if !ix.ProgramID.Equals(d.programID) {
		return false
	}
	if len(ix.Data) < len(d.discriminator) || !bytes.Equal(ix.Data[:len(d.discriminator)], d.discriminator[:]) {
		return false
	}
	return len(ix.Accounts) >= minPoolInitAccounts
}

// Detect returns one PoolEvent per matching instruction, in input order.
func (d *PoolDetector) Detect(instructions []Instruction) []domain.PoolEvent {
	var events []domain.PoolEvent
	for _, ix := range instructions {
		if !d.Matches(ix) {
			continue
		}
		events = append(events, domain.PoolEvent{
			Pool:       ix.Accounts[poolAccountIndex].PublicKey,
			TokenA:     ix.Accounts[tokenAAccountIndex].PublicKey,
			TokenB:     ix.Accounts[tokenBAccountIndex].PublicKey,
			DetectedAt: d.now(),
		})
	}
	return events
}
