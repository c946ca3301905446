package controller

import (
	"fmt"
	"net/http"
	"time"
)

// SMSController is the inbound gateway webhook: providers POST the
// sender's number and the raw message body as form fields. The body is
// the wire envelope itself. The gateway expects an XML acknowledgment
// whatever the outcome, so processing errors are reported inside the
// reply rather than via the status code.
type SMSController struct {
	ingest IngestService
}

func NewSMSController(ingest IngestService) *SMSController {
	return &SMSController{ingest: ingest}
}

func (c *SMSController) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	// Gateway callbacks authenticate via provider signature, not channel
	// credentials, so this route bypasses the basic-auth middleware.
	mux.Handle("POST /api/sms/inbound", http.HandlerFunc(c.inbound))
}

func (c *SMSController) inbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseForm(); err != nil {
		logError(r, err, nil)
		writeXML(w, http.StatusBadRequest, "Malformed request")
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	logRequest(r, map[string]string{"from": from})

	tx, err := c.ingest.Ingest(r.Context(), body)
	if err != nil {
		logError(r, err, map[string]any{"from": from})
		writeXML(w, http.StatusOK, "Error processing message. Please try again.")
		logResponse(r, http.StatusOK, nil, start)
		return
	}

	acknowledgment := "Message received successfully"
	if tx.SmsReference != nil {
		acknowledgment = fmt.Sprintf("Transaction accepted. Reference: %s", *tx.SmsReference)
	}
	writeXML(w, http.StatusOK, acknowledgment)
	logResponse(r, http.StatusOK, nil, start)
}

func writeXML(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, message)
}
