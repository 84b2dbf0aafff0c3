package handler

import (
	"supplier-wallet-service/internal/adapter/http/dto"
	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"
	"supplier-wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler serves platform-operator endpoints: manual corrections,
// wallet status changes, and the withdrawal workflow.
type AdminHandler struct {
	ledgerSvc     ports.LedgerService
	withdrawalSvc ports.WithdrawalService
	walletRepo    ports.WalletRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	ledgerSvc ports.LedgerService,
	withdrawalSvc ports.WithdrawalService,
	walletRepo ports.WalletRepository,
) *AdminHandler {
	return &AdminHandler{
		ledgerSvc:     ledgerSvc,
		withdrawalSvc: withdrawalSvc,
		walletRepo:    walletRepo,
	}
}

// CreateWallet handles POST /api/v1/admin/wallets. Called when a supplier is
// approved; creating an existing supplier's wallet returns it unchanged.
func (h *AdminHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid supplier_id"))
		return
	}

	wallet, err := h.ledgerSvc.CreateWallet(c.Request.Context(), supplierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// ApplyTransaction handles POST /api/v1/admin/wallets/:id/transactions.
func (h *AdminHandler) ApplyTransaction(c *gin.Context) {
	adminID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.AdminTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, entry, err := h.ledgerSvc.ApplyAdminTransaction(c.Request.Context(), ports.AdminTransactionRequest{
		WalletID:  walletID,
		Amount:    req.Amount,
		EntryType: domain.EntryType(req.EntryType),
		AdminID:   adminID,
		Note:      req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"entry":  dto.FromLedgerEntry(*entry),
		"wallet": dto.FromWallet(wallet),
	})
}

// UpdateWalletStatus handles PUT /api/v1/admin/wallets/:id/status.
func (h *AdminHandler) UpdateWalletStatus(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.WalletStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.walletRepo.GetByID(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if wallet == nil {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	status := domain.WalletStatus(req.Status)
	if err := h.walletRepo.UpdateStatus(c.Request.Context(), walletID, status); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	wallet.Status = status
	response.OK(c, dto.FromWallet(wallet))
}

// GetWallet handles GET /api/v1/admin/wallets/:id.
func (h *AdminHandler) GetWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.walletRepo.GetByID(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if wallet == nil {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}

// ProcessWithdrawal handles POST /api/v1/admin/withdrawals/:id/process.
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	adminID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	request, err := h.withdrawalSvc.MarkProcessing(c.Request.Context(), requestID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWithdrawal(request))
}

// CompleteWithdrawal handles POST /api/v1/admin/withdrawals/:id/complete.
func (h *AdminHandler) CompleteWithdrawal(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	var req dto.CompleteWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	request, wallet, err := h.withdrawalSvc.Complete(c.Request.Context(), requestID, req.BankTransactionCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"withdrawal": dto.FromWithdrawal(request),
		"wallet":     dto.FromWallet(wallet),
	})
}

// RejectWithdrawal handles POST /api/v1/admin/withdrawals/:id/reject.
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	adminID, ok := subjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	request, wallet, err := h.withdrawalSvc.Reject(c.Request.Context(), requestID, adminID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"withdrawal": dto.FromWithdrawal(request),
		"wallet":     dto.FromWallet(wallet),
	})
}

// FailWithdrawal handles POST /api/v1/admin/withdrawals/:id/fail.
func (h *AdminHandler) FailWithdrawal(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	request, wallet, err := h.withdrawalSvc.Fail(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"withdrawal": dto.FromWithdrawal(request),
		"wallet":     dto.FromWallet(wallet),
	})
}
