package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/models"
	"github.com/pay-seva/sms-payment-processor/internal/commons"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

type TransactionService interface {
	Initiate(ctx context.Context, request domain.Transaction, pin string) (domain.Transaction, error)
	Complete(ctx context.Context, transactionID int64) (domain.Transaction, error)
	Fail(ctx context.Context, transactionID int64) (domain.Transaction, error)
	GetByID(ctx context.Context, transactionID int64) (domain.Transaction, error)
	GetBySmsReference(ctx context.Context, reference string) (domain.Transaction, error)
	ListByUser(ctx context.Context, upiID string) ([]domain.Transaction, error)
	ListByUserPaginated(ctx context.Context, upiID string, limit, offset int) ([]domain.Transaction, error)
	ListByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error)
}

type IngestService interface {
	Ingest(ctx context.Context, wireMessage string) (domain.Transaction, error)
}

type TransactionController struct {
	service TransactionService
	ingest  IngestService
}

func NewTransactionController(service TransactionService, ingest IngestService) *TransactionController {
	return &TransactionController{service: service, ingest: ingest}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("POST /api/transactions/initiate", wrap(c.initiate))
	mux.Handle("POST /api/transactions/einitiate", wrap(c.encryptedInitiate))
	mux.Handle("POST /api/transactions/{transactionId}/complete", wrap(c.complete))
	mux.Handle("POST /api/transactions/{transactionId}/fail", wrap(c.fail))
	mux.Handle("GET /api/transactions/{transactionId}", wrap(c.get))
	mux.Handle("GET /api/transactions/reference/{smsReference}", wrap(c.getByReference))
	mux.Handle("GET /api/transactions/user/{upiId}", wrap(c.listByUser))
	mux.Handle("GET /api/transactions/status/{status}", wrap(c.listByStatus))
}

func (c *TransactionController) initiate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.InitiateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	created, err := c.service.Initiate(r.Context(), req.ToDomain(), req.Pin)
	if err != nil {
		writeDomainError[models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transaction initiated", models.MapTransaction(created))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

// encryptedInitiate accepts the same wire envelope an SMS would carry,
// wrapped in the offline client's {"e": "..."} body.
func (c *TransactionController) encryptedInitiate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.EncryptedMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, nil)

	created, err := c.ingest.Ingest(r.Context(), req.E)
	if err != nil {
		writeDomainError[models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transaction initiated", models.MapTransaction(created))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *TransactionController) complete(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.service.Complete)
}

func (c *TransactionController) fail(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.service.Fail)
}

func (c *TransactionController) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64) (domain.Transaction, error)) {
	start := time.Now()
	logRequest(r, nil)

	transactionID, err := strconv.ParseInt(r.PathValue("transactionId"), 10, 64)
	if err != nil {
		response := commons.ErrorResponse[models.TransactionResponse]("validation failed", "transactionId must be numeric")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	updated, err := apply(r.Context(), transactionID)
	if err != nil {
		writeDomainError[models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transaction updated", models.MapTransaction(updated))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	transactionID, err := strconv.ParseInt(r.PathValue("transactionId"), 10, 64)
	if err != nil {
		response := commons.ErrorResponse[models.TransactionResponse]("validation failed", "transactionId must be numeric")
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	tx, err := c.service.GetByID(r.Context(), transactionID)
	if err != nil {
		writeDomainError[models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transaction fetched", models.MapTransaction(tx))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) getByReference(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	reference := strings.TrimSpace(r.PathValue("smsReference"))
	tx, err := c.service.GetBySmsReference(r.Context(), reference)
	if err != nil {
		writeDomainError[models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transaction fetched", models.MapTransaction(tx))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) listByUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	upiID := strings.TrimSpace(r.PathValue("upiId"))

	var (
		transactions []domain.Transaction
		err          error
	)
	if r.URL.Query().Has("limit") || r.URL.Query().Has("offset") {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		transactions, err = c.service.ListByUserPaginated(r.Context(), upiID, limit, offset)
	} else {
		transactions, err = c.service.ListByUser(r.Context(), upiID)
	}
	if err != nil {
		writeDomainError[[]models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transactions fetched", models.MapTransactions(transactions))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *TransactionController) listByStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	status := domain.TransactionStatus(strings.ToUpper(strings.TrimSpace(r.PathValue("status"))))
	transactions, err := c.service.ListByStatus(r.Context(), status)
	if err != nil {
		writeDomainError[[]models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("transactions fetched", models.MapTransactions(transactions))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
