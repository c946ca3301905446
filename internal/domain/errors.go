package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")

var ErrValidation = errors.New("validation failed")

// Wire ingestion errors. Each one is permanent for the message that
// produced it; the sender must re-author with a fresh nonce and timestamp.
var (
	ErrMalformedEnvelope = errors.New("malformed wire envelope")
	ErrReplay            = errors.New("message replayed or outside freshness window")
	ErrAuthentication    = errors.New("message authentication failed")
	ErrCodec             = errors.New("unable to decode message payload")
	ErrPayloadParse      = errors.New("payload is not a valid transaction")
)

// Ledger errors.
var (
	ErrInvalidPin   = errors.New("invalid pin")
	ErrInvalidState = errors.New("transaction is not pending")
)
