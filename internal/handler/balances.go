package handler

import (
	"errors"
	"net/http"

	"khatapos/internal/apierror"
	"khatapos/internal/dto"
	"khatapos/internal/ledger"
	"khatapos/internal/service"

	"github.com/gin-gonic/gin"
)

type BalancesHandler struct{ svc service.LedgerService }

func NewBalancesHandler(svc service.LedgerService) *BalancesHandler {
	return &BalancesHandler{svc: svc}
}

// Create godoc
// @Summary      Issue a manual balance
// @Description  Records an opening balance or off-system debt as a synthetic unpaid bill. It enters payment allocation like any other bill.
// @Tags         balances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ManualBalanceRequest true "Balance detail"
// @Success      201  {object} dto.BillResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/balances [post]
func (h *BalancesHandler) Create(c *gin.Context) {
	var req dto.ManualBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.IssueManualBalance(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to issue balance"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}
