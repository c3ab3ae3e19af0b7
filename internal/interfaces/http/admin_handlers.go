package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/application/service"
	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/internal/report"
)

// AdminHandlers serves user management, flow management and expense
// oversight.
type AdminHandlers struct {
	userService    *service.UserService
	flowService    *service.FlowService
	expenseService *service.ExpenseService
	exporter       *report.ExpenseExporter
	logger         Logger
}

// NewAdminHandlers creates admin handlers.
func NewAdminHandlers(
	userService *service.UserService,
	flowService *service.FlowService,
	expenseService *service.ExpenseService,
	exporter *report.ExpenseExporter,
	logger Logger,
) *AdminHandlers {
	return &AdminHandlers{
		userService:    userService,
		flowService:    flowService,
		expenseService: expenseService,
		exporter:       exporter,
		logger:         logger,
	}
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandlers) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	users, total, err := h.userService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, NewPage(users, page, limit, total))
}

// GetUser handles GET /api/admin/users/:id
func (h *AdminHandlers) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// UpdateUser handles PUT /api/admin/users/:id
func (h *AdminHandlers) UpdateUser(c *gin.Context) {
	raw := map[string]interface{}{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	req, err := buildUpdateUserRequest(raw)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// CreateFlow handles POST /api/admin/approval-flows
func (h *AdminHandlers) CreateFlow(c *gin.Context) {
	var req service.FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, type and approvers are required")
		return
	}

	flow, err := h.flowService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, flow)
}

// ListFlows handles GET /api/admin/approval-flows
func (h *AdminHandlers) ListFlows(c *gin.Context) {
	page, limit := pageParams(c)

	flows, total, err := h.flowService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, NewPage(flows, page, limit, total))
}

// GetFlow handles GET /api/admin/approval-flows/:id
func (h *AdminHandlers) GetFlow(c *gin.Context) {
	flow, err := h.flowService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, flow)
}

// UpdateFlow handles PUT /api/admin/approval-flows/:id
func (h *AdminHandlers) UpdateFlow(c *gin.Context) {
	var req service.FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, type and approvers are required")
		return
	}

	flow, err := h.flowService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, flow)
}

// ListExpenses handles GET /api/admin/expenses
func (h *AdminHandlers) ListExpenses(c *gin.Context) {
	page, limit := pageParams(c)

	items, total, err := h.expenseService.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, NewPage(items, page, limit, total))
}

// ExportExpenses handles GET /api/admin/expenses/export
func (h *AdminHandlers) ExportExpenses(c *gin.Context) {
	items, err := h.expenseService.ListAllUnpaged(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.exporter.Export(items)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("expenses_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// buildUpdateUserRequest decodes a partial user update, distinguishing
// absent fields from explicit nulls so managerId/approvalFlowId can be
// cleared.
func buildUpdateUserRequest(raw map[string]interface{}) (service.UpdateUserRequest, error) {
	var req service.UpdateUserRequest

	if v, present := raw["name"]; present {
		s, ok := v.(string)
		if !ok {
			return req, errors.New("name must be a string")
		}
		req.Name = &s
	}
	if v, present := raw["role"]; present {
		s, ok := v.(string)
		if !ok {
			return req, errors.New("role must be a string")
		}
		role := entity.Role(s)
		req.Role = &role
	}
	if v, present := raw["managerId"]; present {
		req.SetManager = true
		if v != nil {
			s, ok := v.(string)
			if !ok {
				return req, errors.New("managerId must be a string or null")
			}
			req.ManagerID = &s
		}
	}
	if v, present := raw["approvalFlowId"]; present {
		req.SetFlow = true
		if v != nil {
			s, ok := v.(string)
			if !ok {
				return req, errors.New("approvalFlowId must be a string or null")
			}
			req.ApprovalFlowID = &s
		}
	}
	return req, nil
}
