package sender

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Dispatch modes. Any other mode names a single relay.
const (
	ModeDirect = "direct"
	ModeRace   = "race"
)

// Dispatcher routes signed transactions to the backends selected by mode.
type Dispatcher struct {
	mode    string
	targets []Submitter
}

// NewDispatcher resolves mode against the available backends. direct may be
// nil unless mode is ModeDirect.
func NewDispatcher(mode string, direct Submitter, relays []Submitter) (*Dispatcher, error) {
	d := &Dispatcher{mode: mode}

	switch mode {
	case ModeDirect:
		if direct == nil {
			return nil, fmt.Errorf("dispatch mode %q requires an RPC submitter", mode)
		}
		d.targets = []Submitter{direct}
	case ModeRace:
		if len(relays) == 0 {
			return nil, fmt.Errorf("dispatch mode %q requires at least one relay", mode)
		}
		d.targets = relays
	default:
		for _, r := range relays {
			if r.Name() == mode {
				d.targets = []Submitter{r}
				break
			}
		}
		if len(d.targets) == 0 {
			return nil, fmt.Errorf("dispatch mode %q: no relay with that name", mode)
		}
	}

	return d, nil
}

// Mode returns the configured mode.
func (d *Dispatcher) Mode() string {
	return d.mode
}

// Targets returns the names of the selected backends.
func (d *Dispatcher) Targets() []string {
	names := make([]string, len(d.targets))
	for i, t := range d.targets {
		names[i] = t.Name()
	}
	return names
}

// Dispatch submits tx to the selected backend, racing when there are several.
func (d *Dispatcher) Dispatch(ctx context.Context, tx *solana.Transaction) (Result, error) {
	if len(d.targets) == 1 {
		return d.targets[0].Submit(ctx, tx)
	}
	return RaceSubmit(ctx, d.targets, tx)
}
