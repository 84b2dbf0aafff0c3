package handler

import (
	"strconv"
	"time"

	"supplier-wallet-service/internal/adapter/http/dto"
	"supplier-wallet-service/internal/adapter/http/middleware"
	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"
	"supplier-wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler serves the supplier's read-only wallet views.
type WalletHandler struct {
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{reportingSvc: reportingSvc}
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	supplierID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.reportingSvc.GetWalletBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// ListLedger handles GET /api/v1/wallet/ledger.
// Query params: type, from, to (RFC3339), page, page_size.
func (h *WalletHandler) ListLedger(c *gin.Context) {
	supplierID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.reportingSvc.GetWalletBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	params := ports.LedgerListParams{
		WalletID: wallet.ID,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	if raw := c.Query("type"); raw != "" {
		entryType := domain.EntryType(raw)
		params.EntryType = &entryType
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid from timestamp, expected RFC3339"))
			return
		}
		params.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid to timestamp, expected RFC3339"))
			return
		}
		params.To = &to
	}

	entries, total, err := h.reportingSvc.ListLedger(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.FromLedgerEntry(e))
	}

	response.OK(c, dto.ListResponse{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// GetPeriodSummary handles GET /api/v1/wallet/summary/:period.
func (h *WalletHandler) GetPeriodSummary(c *gin.Context) {
	supplierID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.reportingSvc.GetWalletBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	period := c.Param("period")
	summary, err := h.reportingSvc.GetPeriodSummary(c.Request.Context(), wallet.ID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromPeriodSummary(period, summary))
}

// subjectID reads the authenticated subject set by the JWT middleware.
func subjectID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.CtxSubjectID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

// queryInt parses an integer query parameter, falling back on garbage.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
