package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
	"github.com/pay-seva/sms-payment-processor/internal/replay"
	"github.com/pay-seva/sms-payment-processor/internal/wire"
	"github.com/shopspring/decimal"
)

// Ledger is the slice of the transaction service the pipeline needs.
type Ledger interface {
	Initiate(ctx context.Context, request domain.Transaction, pin string) (domain.Transaction, error)
}

// smsPayload is the decrypted plaintext schema carried inside the
// envelope. Status, timestamps and reference are server-populated and
// never appear on the wire.
type smsPayload struct {
	Sender struct {
		UpiID string `json:"upiId"`
	} `json:"sender"`
	ReceiverUpi     string          `json:"receiverUpi"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	Pin             string          `json:"pin"`
}

// IngestService runs one inbound wire message through the full pipeline:
// envelope parse, freshness and replay reservation, tag verification,
// decrypt and decompress, payload repair, strict parse, ledger initiate.
// The nonce reservation is provisional: it is confirmed only when the
// whole pipeline succeeds and released on any later failure, so a
// corrected resend keeps its nonce usable.
type IngestService struct {
	codec  *wire.Codec
	auth   *wire.Authenticator
	guard  replay.Guard
	ledger Ledger
}

func NewIngestService(codec *wire.Codec, auth *wire.Authenticator, guard replay.Guard, ledger Ledger) *IngestService {
	return &IngestService{
		codec:  codec,
		auth:   auth,
		guard:  guard,
		ledger: ledger,
	}
}

func (s *IngestService) Ingest(ctx context.Context, wireMessage string) (domain.Transaction, error) {
	env, err := wire.ParseEnvelope(wireMessage)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("parse envelope: %w", err)
	}

	if err := s.guard.Reserve(env.Timestamp, env.Nonce); err != nil {
		return domain.Transaction{}, fmt.Errorf("replay guard: %w", err)
	}

	if !s.auth.Verify([]byte(env.Ciphertext), env.Tag) {
		s.guard.Release(env.Nonce)
		return domain.Transaction{}, fmt.Errorf("authenticate: %w", domain.ErrAuthentication)
	}

	plaintext, err := s.codec.DecryptAndDecompress(env.Ciphertext)
	if err != nil {
		s.guard.Release(env.Nonce)
		return domain.Transaction{}, fmt.Errorf("decode: %w", err)
	}

	cleaned := wire.NormalizePayload(plaintext)

	var payload smsPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		s.guard.Release(env.Nonce)
		return domain.Transaction{}, fmt.Errorf("parse payload: %w: %v", domain.ErrPayloadParse, err)
	}

	request := domain.Transaction{
		SenderUpi:       payload.Sender.UpiID,
		ReceiverUpi:     payload.ReceiverUpi,
		Amount:          payload.Amount,
		Type:            domain.TransactionType(payload.TransactionType),
		EncryptionNonce: &env.Nonce,
	}

	created, err := s.ledger.Initiate(ctx, request, payload.Pin)
	if err != nil {
		s.guard.Release(env.Nonce)
		return domain.Transaction{}, fmt.Errorf("ledger: %w", err)
	}

	s.guard.Confirm(env.Nonce)

	logger.Info("ingest service message applied", logger.Fields{
		"transactionId": created.TransactionID,
		"senderUpi":     created.SenderUpi,
		"status":        created.Status,
	})
	return created, nil
}
