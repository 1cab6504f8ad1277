package chain

import "context"

// Handler receives decoded feed messages. Consume awaits each call before
// reading the next message.
type Handler func(ctx context.Context, ev RawEvent)

// TransactionFeed streams transactions matching a filter.
type TransactionFeed interface {
	// Consume subscribes and invokes handler for every decoded message in
	// arrival order. It returns when ctx is cancelled or the transport fails;
	// it never reconnects.
	Consume(ctx context.Context, handler Handler) error
}

// TransactionFilter selects which transactions the feed delivers.
type TransactionFilter struct {
	// AccountInclude delivers transactions touching any of these accounts.
	AccountInclude []string
	// AccountExclude drops transactions touching any of these accounts.
	AccountExclude []string
	// Vote includes vote transactions.
	Vote bool
	// Failed includes transactions that failed on-chain.
	Failed bool
}

// FeedObserver is notified about every message the feed reads.
type FeedObserver interface {
	StreamMessage(decoded bool)
}
