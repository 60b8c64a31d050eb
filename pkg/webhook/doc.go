// Package webhook signs and verifies webhook deliveries with HMAC-SHA256.
//
// The signature covers the delivery timestamp and the raw body,
// hex(HMAC-SHA256(secret, timestamp + "." + body)), and travels in the
// X-Webhook-Signature and X-Webhook-Timestamp headers. Receivers reject
// deliveries older than the replay window:
//
//	sig, err := webhook.FromHTTPHeader(r.Header)
//	if err != nil {
//		return err
//	}
//	if err := webhook.Verify(secret, body, sig, 5*time.Minute); err != nil {
//		return err
//	}
package webhook
