package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/replay"
	"github.com/pay-seva/sms-payment-processor/internal/usecase/services"
	"github.com/pay-seva/sms-payment-processor/internal/wire"
)

const (
	ingestEncryptionKey = "K7gNU3sdo+OL0wNhqoVWhr3g6s1xYv72ol/pe/Unols="
	ingestMacKey        = "x9WlcJjQqrEJ0v0tSmFhXg3o/1GJorRwU2ray5V1y2c="
)

type ingestFixture struct {
	*ledgerFixture
	codec  *wire.Codec
	auth   *wire.Authenticator
	ingest *services.IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	codec, err := wire.NewCodec(ingestEncryptionKey)
	require.NoError(t, err)
	auth, err := wire.NewAuthenticator(ingestMacKey)
	require.NoError(t, err)

	ledger := newLedgerFixture()
	return &ingestFixture{
		ledgerFixture: ledger,
		codec:         codec,
		auth:          auth,
		ingest:        services.NewIngestService(codec, auth, replay.NewMemoryGuard(), ledger.service),
	}
}

func (f *ingestFixture) seal(t *testing.T, payload string) string {
	t.Helper()
	message, err := wire.Seal(f.codec, f.auth, payload)
	require.NoError(t, err)
	return message
}

func debitPayload(pin string) string {
	return fmt.Sprintf(
		`{"sender":{"upiId":"alice@payseva"},"receiverUpi":"bob@payseva","amount":500.00,"transactionType":"DEBIT","pin":%q}`,
		pin,
	)
}

func TestIngestAppliesDebit(t *testing.T) {
	f := newIngestFixture(t)

	created, err := f.ingest.Ingest(context.Background(), f.seal(t, debitPayload(testPin)))
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusCompleted, created.Status)
	require.NotNil(t, created.EncryptionNonce)
	assert.NotEmpty(t, *created.EncryptionNonce)

	assert.Equal(t, "9500", f.users.balance("alice@payseva").String())
	assert.Equal(t, "10500", f.users.balance("bob@payseva").String())
}

func TestIngestSurvivesTransportDamage(t *testing.T) {
	f := newIngestFixture(t)

	// Sloppy spacing and a bare key in the authored payload; the repair
	// pass cleans it before the strict parse.
	damaged := fmt.Sprintf(
		`{ "sender" : { "upiId" : "alice@payseva" } , "receiverUpi" : "bob@payseva" , amount : 500 , "transactionType" : "DEBIT" , "pin" : %q }`,
		testPin,
	)

	created, err := f.ingest.Ingest(context.Background(), f.seal(t, damaged))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, created.Status)
}

func TestIngestRejectsDuplicateMessage(t *testing.T) {
	f := newIngestFixture(t)
	message := f.seal(t, debitPayload(testPin))

	_, err := f.ingest.Ingest(context.Background(), message)
	require.NoError(t, err)

	_, err = f.ingest.Ingest(context.Background(), message)
	require.ErrorIs(t, err, domain.ErrReplay)

	// The replayed message must not have moved funds a second time.
	assert.Equal(t, "9500", f.users.balance("alice@payseva").String())
	assert.Equal(t, "10500", f.users.balance("bob@payseva").String())
}

func TestIngestRejectsTamperedTag(t *testing.T) {
	f := newIngestFixture(t)
	message := f.seal(t, debitPayload(testPin))

	parts := strings.SplitN(message, ":", 4)
	require.Len(t, parts, 4)
	forged := strings.Join([]string{parts[0], parts[1], f.auth.Tag([]byte("forged")), parts[3]}, ":")

	_, err := f.ingest.Ingest(context.Background(), forged)
	require.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, "10000", f.users.balance("alice@payseva").String())

	// The nonce was only provisionally reserved; the genuine message still
	// goes through.
	_, err = f.ingest.Ingest(context.Background(), message)
	assert.NoError(t, err)
}

func TestIngestRejectsTamperedCiphertext(t *testing.T) {
	f := newIngestFixture(t)
	message := f.seal(t, debitPayload(testPin))

	parts := strings.SplitN(message, ":", 4)
	require.Len(t, parts, 4)
	forged := strings.Join([]string{parts[0], parts[1], parts[2], parts[3] + "AAAA"}, ":")

	_, err := f.ingest.Ingest(context.Background(), forged)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestIngestReleasesNonceOnLedgerFailure(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.ingest.Ingest(context.Background(), f.seal(t, debitPayload("0000")))
	require.ErrorIs(t, err, domain.ErrInvalidPin)
	assert.Equal(t, 1, f.attempts.count())

	// A corrected resend is not replay-rejected.
	created, err := f.ingest.Ingest(context.Background(), f.seal(t, debitPayload(testPin)))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, created.Status)
}

func TestIngestRejectsMalformedEnvelope(t *testing.T) {
	f := newIngestFixture(t)

	cases := []string{
		"",
		"1700000000:nonce-only",
		"not-a-number:nonce:tag:ciphertext",
	}
	for _, message := range cases {
		_, err := f.ingest.Ingest(context.Background(), message)
		assert.ErrorIs(t, err, domain.ErrMalformedEnvelope, message)
	}
}

func TestIngestRejectsStaleTimestamp(t *testing.T) {
	f := newIngestFixture(t)
	message := f.seal(t, debitPayload(testPin))

	parts := strings.SplitN(message, ":", 4)
	require.Len(t, parts, 4)
	stale := strings.Join([]string{"1600000000", parts[1], parts[2], parts[3]}, ":")

	_, err := f.ingest.Ingest(context.Background(), stale)
	assert.ErrorIs(t, err, domain.ErrReplay)
}

func TestIngestRejectsUnparseablePayload(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.ingest.Ingest(context.Background(), f.seal(t, "this is not json at all"))
	assert.ErrorIs(t, err, domain.ErrPayloadParse)
}
