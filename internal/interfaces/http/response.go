package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/application/service"
	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/domain/engine"
)

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Page shapes paginated list payloads.
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// NewPage assembles a paginated payload.
func NewPage(items interface{}, page, limit, totalItems int) Page {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	return Page{
		Items:      items,
		Page:       page,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{Success: false, Message: err.Error()})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
}

// statusFor maps error kinds to HTTP status codes. Configuration problems
// (no approver chain) surface as 400 like other invalid submissions.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNoApproverChain),
		errors.Is(err, engine.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, engine.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, engine.ErrAlreadyProcessed),
		errors.Is(err, engine.ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
