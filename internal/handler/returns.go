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

type ReturnsHandler struct{ svc service.LedgerService }

func NewReturnsHandler(svc service.LedgerService) *ReturnsHandler {
	return &ReturnsHandler{svc: svc}
}

// Create godoc
// @Summary      Record a return credit
// @Description  Registers a merchandise return. Only credited refunds reduce the customer's outstanding balance; cash refunds are recorded for audit but settle outside the ledger.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateReturnRequest true "Return detail"
// @Success      201  {object} dto.ReturnCreditResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/returns [post]
func (h *ReturnsHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateReturnCredit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to record return"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns all return credits, optionally filtered by phone.
func (h *ReturnsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListReturnCredits(c.Request.Context(), c.Query("phone"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list returns"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
