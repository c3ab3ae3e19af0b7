package http

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/application/service"
	"github.com/kmorales/expenseflow/internal/receipt"
)

// ExpenseHandlers serves submission, listing and processing of expenses.
type ExpenseHandlers struct {
	expenseService *service.ExpenseService
	scanner        *receipt.Scanner
	pdfReader      *receipt.PDFReader
	logger         Logger
}

// NewExpenseHandlers creates expense handlers.
func NewExpenseHandlers(
	expenseService *service.ExpenseService,
	scanner *receipt.Scanner,
	pdfReader *receipt.PDFReader,
	logger Logger,
) *ExpenseHandlers {
	return &ExpenseHandlers{
		expenseService: expenseService,
		scanner:        scanner,
		pdfReader:      pdfReader,
		logger:         logger,
	}
}

// Submit handles POST /api/expenses
func (h *ExpenseHandlers) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "amount, category and description are required")
		return
	}

	exp, err := h.expenseService.Submit(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, exp)
}

// My handles GET /api/expenses/my
func (h *ExpenseHandlers) My(c *gin.Context) {
	page, limit := pageParams(c)

	items, total, err := h.expenseService.GetMine(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, NewPage(items, page, limit, total))
}

// PendingApprovals handles GET /api/expenses/pending-approvals
func (h *ExpenseHandlers) PendingApprovals(c *gin.Context) {
	page, limit := pageParams(c)

	items, total, err := h.expenseService.GetPendingFor(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, NewPage(items, page, limit, total))
}

// Process handles PUT /api/expenses/:id/process
func (h *ExpenseHandlers) Process(c *gin.Context) {
	var req service.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "action is required")
		return
	}

	exp, err := h.expenseService.Process(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, exp)
}

// scanTextRequest carries pasted receipt text for scanning.
type scanTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ScanReceipt handles POST /api/expenses/scan-receipt. It accepts either a
// JSON body with raw receipt text or a multipart PDF upload under "receipt".
func (h *ExpenseHandlers) ScanReceipt(c *gin.Context) {
	text, ok := h.receiptText(c)
	if !ok {
		return
	}
	respondOK(c, h.scanner.Scan(text))
}

func (h *ExpenseHandlers) receiptText(c *gin.Context) (string, bool) {
	file, err := c.FormFile("receipt")
	if err != nil {
		var req scanTextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "provide receipt text or a PDF upload")
			return "", false
		}
		return req.Text, true
	}

	tmp, err := os.CreateTemp("", "receipt_*"+filepath.Ext(file.Filename))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		respondError(c, err)
		return "", false
	}

	text, err := h.pdfReader.ExtractText(tmpPath)
	if err != nil {
		h.logger.Error("Receipt PDF extraction failed", "error", err)
		respondBadRequest(c, "could not read uploaded receipt")
		return "", false
	}
	return text, true
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
