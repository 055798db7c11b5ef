package notify

import (
	"context"
	"log/slog"
)

// DisplayNotifier does not transmit anything. The link is logged at debug
// level and returned to the requester for in-band display.
type DisplayNotifier struct {
	logger *slog.Logger
}

// NewDisplayNotifier creates a DisplayNotifier.
func NewDisplayNotifier(logger *slog.Logger) *DisplayNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DisplayNotifier{logger: logger}
}

// Deliver always succeeds.
func (n *DisplayNotifier) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	receipt := Receipt{ID: newReceiptID(), Channel: ChannelDisplay, Displayed: true}
	n.logger.DebugContext(ctx, "verification_link_displayed",
		slog.String("receipt_id", receipt.ID),
		slog.String("to", msg.To),
	)
	return receipt, nil
}
