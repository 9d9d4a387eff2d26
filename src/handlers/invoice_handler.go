package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/model"
	"github.com/username/cardfolio/backend/src/services"
	"github.com/username/cardfolio/backend/src/utils"
)

type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

func NewInvoiceHandler(service services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: service,
	}
}

// HandleListInvoices serves GET /api/invoices: one summary row per
// reconciled invoice of the user's cards.
func (h *InvoiceHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summaries, err := h.invoiceService.ListInvoices(userID)
	if err != nil {
		logger.L.Error("Error retrieving invoice summaries", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving invoices for userID %d", userID), http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []model.InvoiceSummary{}
	}
	utils.SendJSON(w, summaries, http.StatusOK)
}
