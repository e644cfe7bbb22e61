package handler

import (
	"errors"
	"net/http"

	"khatapos/internal/apierror"
	"khatapos/internal/dto"
	"khatapos/internal/ledger"
	"khatapos/internal/service"
	"khatapos/internal/worker"

	"github.com/gin-gonic/gin"
)

type CustomersHandler struct {
	svc        service.LedgerService
	dispatcher *worker.Dispatcher
}

func NewCustomersHandler(svc service.LedgerService, dispatcher *worker.Dispatcher) *CustomersHandler {
	return &CustomersHandler{svc: svc, dispatcher: dispatcher}
}

// List godoc
// @Summary      List consolidated customers
// @Description  Returns each customer's consolidated credit position, recomputed from the full bill and return-credit sets.
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        search         query string false "Name substring or phone digits"
// @Param        status         query string false "all | paid | unpaid"
// @Param        sort           query string false "highest | lowest | oldest | newest"
// @Param        show_all_bills query bool   false "Include fully settled customers"
// @Success      200 {array}  dto.CustomerResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/customers [get]
func (h *CustomersHandler) List(c *gin.Context) {
	var q dto.CustomerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListCustomers(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list customers"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one customer's consolidated position with the open bill detail.
func (h *CustomersHandler) Get(c *gin.Context) {
	resp, err := h.svc.GetCustomer(c.Request.Context(), c.Param("phone"))
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load customer"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statement godoc
// @Summary      Customer statement
// @Description  Full audit view: every bill (voided included), payment event and return credit for one customer.
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        phone path string true "Customer phone"
// @Success      200 {object} dto.StatementResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/customers/{phone}/statement [get]
func (h *CustomersHandler) Statement(c *gin.Context) {
	resp, err := h.svc.GetStatement(c.Request.Context(), c.Param("phone"))
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load statement"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remind enqueues one due-reminder email for a customer, regardless of the
// cron schedule. Rejected when the customer owes nothing.
func (h *CustomersHandler) Remind(c *gin.Context) {
	cust, err := h.svc.GetCustomer(c.Request.Context(), c.Param("phone"))
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load customer"))
		return
	}
	if !cust.TotalOutstanding.IsPositive() {
		c.JSON(http.StatusBadRequest, apierror.New("Customer has no outstanding balance"))
		return
	}

	payload := worker.ReminderJobPayload{
		CustomerName: cust.Name,
		Phone:        cust.Phone,
		Outstanding:  cust.TotalOutstanding,
		DaysOverdue:  cust.DaysOverdue,
		OldestBill:   cust.OldestBillDate,
	}
	if err := h.dispatcher.EnqueueReminder(c.Request.Context(), payload); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to enqueue reminder"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// RecordPayment godoc
// @Summary      Record a customer payment
// @Description  Allocates a payment across the customer's open bills oldest-first. On a mid-allocation store failure the response reports the events already persisted.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        phone path string                   true "Customer phone"
// @Param        body  body dto.RecordPaymentRequest true "Payment detail"
// @Success      200 {object} dto.PaymentResultResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Failure      500 {object} apierror.PartialWriteError
// @Router       /v1/customers/{phone}/payments [post]
func (h *CustomersHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.RecordPayment(c.Request.Context(), c.Param("phone"), req)
	if err != nil {
		var partial *service.PartialAllocationError
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrExceedsOutstanding):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, service.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, apierror.New("Customer not found"))
		case errors.Is(err, service.ErrAllocationInProgress):
			c.JSON(http.StatusConflict, apierror.New("Another payment for this customer is in progress"))
		case errors.As(err, &partial):
			c.JSON(http.StatusInternalServerError,
				apierror.NewPartialWrite("Payment partially applied", partial.Applied))
		default:
			c.JSON(http.StatusInternalServerError, apierror.New("Failed to record payment"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}
