package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

const envelopeFields = 4

// Envelope is the four-part wire structure
// "<unix_seconds>:<nonce>:<tag>:<ciphertext>". It exists only for the
// duration of one ingestion call and is never persisted.
type Envelope struct {
	Timestamp  uint64
	Nonce      string
	Tag        string
	Ciphertext string
}

// ParseEnvelope splits on the first three colons only; the ciphertext
// field keeps any colons of its own.
func ParseEnvelope(wireMessage string) (Envelope, error) {
	parts := strings.SplitN(strings.TrimSpace(wireMessage), ":", envelopeFields)
	if len(parts) != envelopeFields {
		return Envelope{}, fmt.Errorf("%w: expected 4 colon-delimited fields, got %d", domain.ErrMalformedEnvelope, len(parts))
	}

	for i, part := range parts {
		if part == "" {
			return Envelope{}, fmt.Errorf("%w: field %d is empty", domain.ErrMalformedEnvelope, i+1)
		}
	}

	timestamp, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: timestamp %q is not an unsigned integer", domain.ErrMalformedEnvelope, parts[0])
	}

	return Envelope{
		Timestamp:  timestamp,
		Nonce:      parts[1],
		Tag:        parts[2],
		Ciphertext: parts[3],
	}, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("%d:%s:%s:%s", e.Timestamp, e.Nonce, e.Tag, e.Ciphertext)
}

// Seal authors a complete wire message for the given plaintext: a fresh
// high-entropy nonce, the current UTC time, ciphertext and its tag.
func Seal(codec *Codec, auth *Authenticator, plaintext string) (string, error) {
	ciphertext, err := codec.CompressAndEncrypt(plaintext)
	if err != nil {
		return "", err
	}

	env := Envelope{
		Timestamp:  uint64(time.Now().UTC().Unix()),
		Nonce:      uuid.NewString(),
		Tag:        auth.Tag([]byte(ciphertext)),
		Ciphertext: ciphertext,
	}

	return env.String(), nil
}
