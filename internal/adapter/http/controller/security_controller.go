package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/models"
	"github.com/pay-seva/sms-payment-processor/internal/commons"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

type SecurityService interface {
	GetFailedAttempts(ctx context.Context, upiID string) ([]domain.FailedAttempt, error)
	CountRecentFailedAttempts(ctx context.Context, upiID string, window time.Duration) (int64, error)
}

// SecurityController exposes the failed-attempt audit trail for support
// and throttling tooling.
type SecurityController struct {
	service SecurityService
}

func NewSecurityController(service SecurityService) *SecurityController {
	return &SecurityController{service: service}
}

func (c *SecurityController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("GET /api/security/attempts/{upiId}", wrap(c.attempts))
	mux.Handle("GET /api/security/attempts/{upiId}/recent", wrap(c.recentCount))
}

func (c *SecurityController) attempts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	upiID := strings.TrimSpace(r.PathValue("upiId"))
	attempts, err := c.service.GetFailedAttempts(r.Context(), upiID)
	if err != nil {
		writeDomainError[[]models.FailedAttemptResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("failed attempts fetched", models.MapFailedAttempts(attempts))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

// recentCount reports how many failures the address accrued inside the
// window. Window is passed as ?minutes=N, defaulting to 15.
func (c *SecurityController) recentCount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}

	upiID := strings.TrimSpace(r.PathValue("upiId"))
	count, err := c.service.CountRecentFailedAttempts(r.Context(), upiID, time.Duration(minutes)*time.Minute)
	if err != nil {
		writeDomainError[models.FailedAttemptCountResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("failed attempt count fetched", models.FailedAttemptCountResponse{
		UpiID:         upiID,
		WindowMinutes: minutes,
		Count:         count,
	})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
