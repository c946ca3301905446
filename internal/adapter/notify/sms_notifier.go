package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/logger"
)

const defaultFlowURL = "https://api.msg91.com/api/v5/flow/"
const countryPrefix = "91"

// SMSNotifier posts transaction alerts to an MSG91-style flow API. It is
// strictly best-effort: callers log its errors and move on, since the
// ledger has already committed by the time any alert goes out.
type SMSNotifier struct {
	authKey    string
	templateID string
	senderID   string
	flowURL    string
	client     *http.Client
}

func NewSMSNotifier(authKey, templateID, senderID string) *SMSNotifier {
	return &SMSNotifier{
		authKey:    authKey,
		templateID: templateID,
		senderID:   senderID,
		flowURL:    defaultFlowURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type flowRequest struct {
	TemplateID string `json:"template_id"`
	Sender     string `json:"sender"`
	ShortURL   string `json:"short_url"`
	Mobiles    string `json:"mobiles"`
	Message    string `json:"VAR1,omitempty"`
	Reference  string `json:"VAR2,omitempty"`
}

func (n *SMSNotifier) DebitConfirmation(ctx context.Context, user domain.User, tx domain.Transaction) error {
	message := fmt.Sprintf("Sent %s to %s", tx.Amount.StringFixed(2), tx.ReceiverUpi)
	return n.send(ctx, user.PhoneNumber, message, tx)
}

func (n *SMSNotifier) CreditAlert(ctx context.Context, user domain.User, tx domain.Transaction) error {
	message := fmt.Sprintf("Received %s from %s", tx.Amount.StringFixed(2), tx.SenderUpi)
	return n.send(ctx, user.PhoneNumber, message, tx)
}

func (n *SMSNotifier) FailureAlert(ctx context.Context, user domain.User, tx domain.Transaction) error {
	message := fmt.Sprintf("Transfer of %s to %s failed and was reversed", tx.Amount.StringFixed(2), tx.ReceiverUpi)
	return n.send(ctx, user.PhoneNumber, message, tx)
}

func (n *SMSNotifier) send(ctx context.Context, phoneNumber, message string, tx domain.Transaction) error {
	reference := ""
	if tx.SmsReference != nil {
		reference = *tx.SmsReference
	}

	body, err := json.Marshal(flowRequest{
		TemplateID: n.templateID,
		Sender:     n.senderID,
		ShortURL:   "1",
		Mobiles:    countryPrefix + phoneNumber,
		Message:    message,
		Reference:  reference,
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.flowURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authkey", n.authKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send sms: provider returned %d", resp.StatusCode)
	}

	logger.Info("sms notifier delivered", logger.Fields{
		"transactionId": tx.TransactionID,
		"status":        resp.StatusCode,
	})
	return nil
}
