package push

import (
	"context"

	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
)

// Dispatcher is the notification dispatch engine entry point.
type Dispatcher interface {
	// Init runs the cold-start reconciliation (ledger reset, call state
	// reset). Safe to call multiple times; only the first performs work.
	Init(ctx context.Context) error

	// OnReceived processes one inbound push event end to end.
	OnReceived(ctx context.Context, ev Event) (*DispatchOutcome, error)

	// OnOpened is invoked when the user taps a notification for the key.
	OnOpened(ctx context.Context, key ledger.Key) error
}
