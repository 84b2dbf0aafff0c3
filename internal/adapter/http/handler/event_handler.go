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

// EventHandler receives order lifecycle events from the order subsystem.
type EventHandler struct {
	settlementSvc ports.SettlementService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(settlementSvc ports.SettlementService) *EventHandler {
	return &EventHandler{settlementSvc: settlementSvc}
}

// HandleOrderEvent handles POST /api/v1/internal/order-events.
func (h *EventHandler) HandleOrderEvent(c *gin.Context) {
	var req dto.OrderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid order_id"))
		return
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid supplier_id"))
		return
	}

	result, err := h.settlementSvc.HandleOrderEvent(c.Request.Context(), domain.OrderEvent{
		OrderID:     orderID,
		SupplierID:  supplierID,
		GrossAmount: req.GrossAmount,
		EventType:   domain.OrderEventType(req.EventType),
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
