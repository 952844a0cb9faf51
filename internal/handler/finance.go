package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/service"
)

// BudgetHandler handles HTTP requests for budgets.
type BudgetHandler struct {
	*ResourceHandler[*model.Budget]
	svc *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(svc *service.BudgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{
		ResourceHandler: NewResourceHandler[*model.Budget](svc, Labels{
			Plural:   "budgets",
			Created:  "Budget created successfully",
			Updated:  "Budget updated successfully",
			Deleted:  "Budget deleted successfully",
			NotFound: "Budget not found",
		}, logger),
		svc: svc,
	}
}

// Recalculate handles POST /api/v1/budgets/{id}/recalculate.
func (h *BudgetHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	budget, err := h.svc.Recalculate(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, budget, "Budget recalculated successfully")
}

// TransactionHandler handles HTTP requests for transactions.
type TransactionHandler struct {
	*ResourceHandler[*model.Transaction]
	svc *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc *service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		ResourceHandler: NewResourceHandler[*model.Transaction](svc, Labels{
			Plural:   "transactions",
			Created:  "Transaction created successfully",
			Updated:  "Transaction updated successfully",
			Deleted:  "Transaction deleted successfully.",
			NotFound: "Transaction not found",
		}, logger),
		svc: svc,
	}
}

// Analytics handles GET /api/v1/transactions/analytics.
func (h *TransactionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Analytics(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, data, "")
}
