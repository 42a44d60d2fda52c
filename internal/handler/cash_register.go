package handler

import (
	"net/http"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashRegisterHandler struct{ svc service.CashRegisterService }

func NewCashRegisterHandler(svc service.CashRegisterService) *CashRegisterHandler {
	return &CashRegisterHandler{svc: svc}
}

// Open godoc
// @Summary Opens a cash register
// @Tags cashregister
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenRegisterRequest true "Opening float"
// @Success 201 {object} dto.CashRegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /cashregister/open [post]
func (h *CashRegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actingEmployee(c, req.EmployeeID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes a cash register with the counted amount
// @Tags cashregister
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register id"
// @Param body body dto.CloseRegisterRequest true "Closing count"
// @Success 200 {object} dto.CashRegisterResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /cashregister/{id}/close [put]
func (h *CashRegisterHandler) Close(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id, actingEmployee(c, req.EmployeeID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterSale godoc
// @Summary Records a sale on the open register, opening one if needed
// @Tags cashregister
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegisterSaleRequest true "Sale"
// @Success 200 {object} dto.CashRegisterResponse
// @Failure 422 {object} apierror.APIError
// @Router /cashregister/register-sale [post]
func (h *CashRegisterHandler) RegisterSale(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterSale(c.Request.Context(), uuid.MustParse(req.OrderID), req.Amount, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentOpen godoc
// @Summary Returns the open register
// @Tags cashregister
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CashRegisterResponse
// @Failure 404 {object} apierror.APIError
// @Router /cashregister/open-current [get]
func (h *CashRegisterHandler) CurrentOpen(c *gin.Context) {
	resp, err := h.svc.CurrentOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Returns the reconciliation report of a register
// @Tags cashregister
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register id"
// @Success 200 {object} dto.RegisterReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /cashregister/{id}/report [get]
func (h *CashRegisterHandler) Report(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
