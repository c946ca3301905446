package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

// Authenticator computes and verifies the HMAC-SHA-256 tag carried in the
// envelope. Its key is distinct from the encryption key.
type Authenticator struct {
	key []byte
}

func NewAuthenticator(base64Key string) (*Authenticator, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64Key))
	if err != nil {
		return nil, fmt.Errorf("%w: mac key is not valid base64", domain.ErrAuthentication)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: mac key is empty", domain.ErrAuthentication)
	}

	return &Authenticator{key: key}, nil
}

// Tag returns the URL-safe unpadded base64 HMAC of the ciphertext as it
// appears on the wire.
func (a *Authenticator) Tag(ciphertext []byte) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write(ciphertext)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares the candidate tag against a freshly computed one over
// the full tag length, so a mismatch costs the same regardless of where
// the first differing byte sits.
func (a *Authenticator) Verify(ciphertext []byte, candidateTag string) bool {
	candidate, err := decodeTransportText(candidateTag)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, a.key)
	mac.Write(ciphertext)
	return hmac.Equal(candidate, mac.Sum(nil))
}
