package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Webhook request headers.
const (
	HeaderSignature  = "X-Budgetdesk-Signature"
	HeaderTimestamp  = "X-Budgetdesk-Timestamp"
	HeaderDeliveryID = "X-Budgetdesk-Delivery-Id"
)

// webhookRetryDelays are the pauses between delivery attempts. Delivery is
// synchronous with the request that started verification, so they are short.
var webhookRetryDelays = []time.Duration{
	250 * time.Millisecond,
	time.Second,
}

const webhookJitter = 0.2

// ErrWebhookRejected is returned when the receiver answers with a non-2xx
// status that retrying will not fix.
var ErrWebhookRejected = errors.New("webhook rejected delivery")

// WebhookConfig configures the webhook channel.
type WebhookConfig struct {
	URL    string
	Secret string
}

// WebhookNotifier POSTs the message as signed JSON to a receiver that
// sends the email.
type WebhookNotifier struct {
	cfg    WebhookConfig
	client *http.Client
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewWebhookNotifier creates a WebhookNotifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		cfg:    cfg,
		client: newWebhookClient(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

type webhookPayload struct {
	DeliveryID string `json:"delivery_id"`
	To         string `json:"to"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Deliver sends msg, retrying transport errors and 5xx/429 answers.
func (n *WebhookNotifier) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	id := newReceiptID()
	body, err := json.Marshal(webhookPayload{
		DeliveryID: id,
		To:         msg.To,
		From:       msg.From,
		Subject:    msg.Subject,
		Body:       msg.Body,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		retry, err := n.post(ctx, id, body)
		if err == nil {
			return Receipt{ID: id, Channel: ChannelWebhook}, nil
		}
		if !retry || attempt >= len(webhookRetryDelays) {
			return Receipt{}, err
		}
		if err := n.sleep(ctx, retryDelay(attempt)); err != nil {
			return Receipt{}, err
		}
	}
}

func (n *WebhookNotifier) post(ctx context.Context, id string, body []byte) (retry bool, err error) {
	timestamp := n.now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Budgetdesk-Webhook/1.0")
	req.Header.Set(HeaderSignature, Sign(n.cfg.Secret, timestamp, body))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderDeliveryID, id)

	resp, err := n.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("webhook post: status %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}
}

// Sign returns the hex HMAC-SHA256 of "{timestamp}.{body}".
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature in constant time. Receivers should also
// bound the timestamp age.
func VerifySignature(secret, signature string, timestamp int64, body []byte) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}

// retryDelay returns the pause after attempt with ±20% jitter.
func retryDelay(attempt int) time.Duration {
	base := webhookRetryDelays[min(attempt, len(webhookRetryDelays)-1)]
	jitter := (rand.Float64()*2 - 1) * float64(base) * webhookJitter
	return base + time.Duration(jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// newWebhookClient has bounded timeouts and does not follow redirects.
func newWebhookClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
