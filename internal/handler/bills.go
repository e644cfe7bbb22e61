package handler

import (
	"errors"
	"net/http"

	"khatapos/internal/apierror"
	"khatapos/internal/dto"
	"khatapos/internal/ledger"
	"khatapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillsHandler struct{ svc service.LedgerService }

func NewBillsHandler(svc service.LedgerService) *BillsHandler { return &BillsHandler{svc: svc} }

// Create godoc
// @Summary      Record a bill
// @Description  Registers a credit sale (or a bill carrying an upfront partial payment) against a customer's ledger.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateBillRequest true "Bill detail"
// @Success      201  {object} dto.BillResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/bills [post]
func (h *BillsHandler) Create(c *gin.Context) {
	var req dto.CreateBillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBill(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to create bill"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List bills
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        phone  query string false "Filter by customer phone"
// @Param        status query string false "unpaid | partial | paid | full_return | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Records per page (default 50)"
// @Success      200    {object} dto.BillListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/bills [get]
func (h *BillsHandler) List(c *gin.Context) {
	var filter dto.BillFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListBills(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list bills"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPayments returns the append-only payment history of one bill.
func (h *BillsHandler) ListPayments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.ListBillPayments(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list payments"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
