// Package notify delivers verification links to users. The display channel
// hands the link back to the caller in-band; smtp, sns and webhook transmit
// it.
package notify

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Channel names.
const (
	ChannelDisplay = "display"
	ChannelSMTP    = "smtp"
	ChannelSNS     = "sns"
	ChannelWebhook = "webhook"
)

// Message is a verification email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
	// Link is the verification URL embedded in Body.
	Link string
}

// Receipt describes a completed delivery.
type Receipt struct {
	ID      string
	Channel string
	// Displayed is true when the link must be shown to the requester
	// because nothing was transmitted.
	Displayed bool
}

// Notifier delivers messages. Deliver must be safe to call repeatedly for
// the same recipient.
type Notifier interface {
	Deliver(ctx context.Context, msg Message) (Receipt, error)
}

// Envelope holds the sender settings used to compose messages.
type Envelope struct {
	From    string
	Subject string
}

// Compose builds the verification message for a recipient.
func Compose(env Envelope, to, link string, expiry time.Duration) Message {
	var b strings.Builder
	b.WriteString("Please verify your email to access the Political Awards allocation system.\n")
	b.WriteString("Click the following link to verify your email:\n\n")
	b.WriteString(link)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "This link will expire in %d hours.\n", int(expiry.Hours()))

	return Message{
		To:      to,
		From:    env.From,
		Subject: env.Subject,
		Body:    b.String(),
		Link:    link,
	}
}

func newReceiptID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
