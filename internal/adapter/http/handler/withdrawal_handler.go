package handler

import (
	"supplier-wallet-service/internal/adapter/http/dto"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"
	"supplier-wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler serves the supplier's withdrawal endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
	reportingSvc  ports.ReportingService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService, reportingSvc ports.ReportingService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalSvc: withdrawalSvc,
		reportingSvc:  reportingSvc,
	}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	supplierID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.reportingSvc.GetWalletBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	request, wallet, err := h.withdrawalSvc.Create(c.Request.Context(), ports.CreateWithdrawalRequest{
		WalletID:          wallet.ID,
		Amount:            req.Amount,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
		BankAccountHolder: req.BankAccountHolder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"withdrawal": dto.FromWithdrawal(request),
		"wallet":     dto.FromWallet(wallet),
	})
}

// List handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
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

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 0)

	requests, total, err := h.reportingSvc.ListWithdrawals(c.Request.Context(), wallet.ID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WithdrawalResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.FromWithdrawal(&requests[i]))
	}

	response.OK(c, dto.ListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Cancel handles POST /api/v1/withdrawals/:id/cancel.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	supplierID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	wallet, err := h.reportingSvc.GetWalletBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	request, wallet, err := h.withdrawalSvc.CancelBySupplier(c.Request.Context(), requestID, wallet.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"withdrawal": dto.FromWithdrawal(request),
		"wallet":     dto.FromWallet(wallet),
	})
}
