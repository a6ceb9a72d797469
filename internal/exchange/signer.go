package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// RecvWindow is the validity window in milliseconds sent with every private request.
const RecvWindow = "5000"

const (
	headerAPIKey     = "X-BAPI-API-KEY"
	headerTimestamp  = "X-BAPI-TIMESTAMP"
	headerRecvWindow = "X-BAPI-RECV-WINDOW"
	headerSign       = "X-BAPI-SIGN"
)

// Signer computes Bybit v5 HMAC-SHA256 request signatures.
type Signer struct {
	apiKey    string
	apiSecret []byte
}

// NewSigner keeps the credentials used for private calls.
func NewSigner(apiKey, apiSecret string) *Signer {
	return &Signer{apiKey: apiKey, apiSecret: []byte(apiSecret)}
}

// Sign returns the lowercase hex HMAC of timestamp+apiKey+recvWindow+payload.
// payload is the encoded query string for GET and the exact JSON body for POST.
func (s *Signer) Sign(timestamp, payload string) string {
	mac := hmac.New(sha256.New, s.apiSecret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(s.apiKey))
	mac.Write([]byte(RecvWindow))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Apply attaches the authentication headers for payload to h.
func (s *Signer) Apply(h http.Header, timestamp, payload string) {
	h.Set(headerAPIKey, s.apiKey)
	h.Set(headerTimestamp, timestamp)
	h.Set(headerRecvWindow, RecvWindow)
	h.Set(headerSign, s.Sign(timestamp, payload))
}

// Wipe zeroes the secret; the signer must not be used afterwards.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	for i := range s.apiSecret {
		s.apiSecret[i] = 0
	}
}
