package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pay-seva/sms-payment-processor/internal/adapter/http/models"
	"github.com/pay-seva/sms-payment-processor/internal/commons"
	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/shopspring/decimal"
)

type UserService interface {
	CreateUser(ctx context.Context, user domain.User, pin string) (domain.User, error)
	GetUser(ctx context.Context, upiID string) (domain.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, upiID string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetBalance(ctx context.Context, upiID, pin string) (decimal.Decimal, error)
	GetHistory(ctx context.Context, upiID, pin string) ([]domain.Transaction, error)
}

type UserController struct {
	service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{service: service}
}

func (c *UserController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(h)
		}
		return h
	}

	mux.Handle("POST /api/users", wrap(c.create))
	mux.Handle("GET /api/users", wrap(c.list))
	mux.Handle("GET /api/users/{upiId}", wrap(c.get))
	mux.Handle("GET /api/users/phone/{phoneNumber}", wrap(c.getByPhone))
	mux.Handle("PUT /api/users/{upiId}", wrap(c.update))
	mux.Handle("DELETE /api/users/{upiId}", wrap(c.delete))
	mux.Handle("POST /api/users/balance", wrap(c.balance))
	mux.Handle("POST /api/users/history", wrap(c.history))
}

func (c *UserController) create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.UserResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := commons.ErrorResponse[models.UserResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	created, err := c.service.CreateUser(r.Context(), domain.User{
		UpiID:       req.UpiID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	}, req.Pin)
	if err != nil {
		writeDomainError[models.UserResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("user created successfully", models.MapUser(created))
	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *UserController) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	upiID := strings.TrimSpace(r.PathValue("upiId"))
	user, err := c.service.GetUser(r.Context(), upiID)
	if err != nil {
		writeDomainError[models.UserResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("user fetched successfully", models.MapUser(user))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) getByPhone(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	phoneNumber := strings.TrimSpace(r.PathValue("phoneNumber"))
	user, err := c.service.GetUserByPhone(r.Context(), phoneNumber)
	if err != nil {
		writeDomainError[models.UserResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("user fetched successfully", models.MapUser(user))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.UserResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := commons.ErrorResponse[models.UserResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	updated, err := c.service.UpdateUser(r.Context(), domain.User{
		UpiID:       strings.TrimSpace(r.PathValue("upiId")),
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeDomainError[models.UserResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("user updated successfully", models.MapUser(updated))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	users, err := c.service.ListUsers(r.Context())
	if err != nil {
		writeDomainError[[]models.UserResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("users fetched successfully", models.MapUsers(users))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	upiID := strings.TrimSpace(r.PathValue("upiId"))
	if err := c.service.DeleteUser(r.Context(), upiID); err != nil {
		writeDomainError[struct{}](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("user deleted successfully", struct{}{})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) balance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.BalanceResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	balance, err := c.service.GetBalance(r.Context(), req.UpiID, req.Pin)
	if err != nil {
		writeDomainError[models.BalanceResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("balance fetched successfully", models.BalanceResponse{
		UpiID:   req.UpiID,
		Balance: balance.StringFixed(2),
	})
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *UserController) history(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[[]models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	history, err := c.service.GetHistory(r.Context(), req.UpiID, req.Pin)
	if err != nil {
		writeDomainError[[]models.TransactionResponse](w, r, err, start)
		return
	}

	response := commons.SuccessResponse("history fetched successfully", models.MapTransactions(history))
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
