package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookFields are the notification values covered by the V3 signature.
// Missing values are empty strings.
type WebhookFields struct {
	EventType      string
	PaymentID      string
	Token          string
	ConversationID string
	Status         string
}

// ComputeSignature returns the lower-case hex HMAC-SHA256 of
// secret+eventType+paymentId+token+conversationId+status keyed by secret.
func ComputeSignature(f WebhookFields, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(secret + f.EventType + f.PaymentID + f.Token + f.ConversationID + f.Status))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether delivered matches the signature computed
// for f. Comparison is case-insensitive on the delivered value.
func VerifySignature(f WebhookFields, secret, delivered string) bool {
	if delivered == "" {
		return false
	}
	expected := ComputeSignature(f, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(delivered)))
}
