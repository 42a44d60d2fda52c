package handler

import (
	"net/http"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type TablesHandler struct{ svc service.TableService }

func NewTablesHandler(svc service.TableService) *TablesHandler { return &TablesHandler{svc: svc} }

// Create godoc
// @Summary Registers a table
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateTableRequest true "Table"
// @Success 201 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /table [post]
func (h *TablesHandler) Create(c *gin.Context) {
	var req dto.CreateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lists tables ordered by number
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param status query string false "free | occupied | reserved | maintenance"
// @Success 200 {array} dto.TableResponse
// @Router /table [get]
func (h *TablesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary Counts tables per status
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TableSummaryResponse
// @Router /table/summary [get]
func (h *TablesHandler) Summary(c *gin.Context) {
	resp, err := h.svc.StatusSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Gets a table
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table id"
// @Success 200 {object} dto.TableResponse
// @Failure 404 {object} apierror.APIError
// @Router /table/{id} [get]
func (h *TablesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Open godoc
// @Summary Seats customers at a free table
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table id"
// @Param body body dto.OpenTableRequest true "Occupancy"
// @Success 200 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Router /table/{id}/open [post]
func (h *TablesHandler) Open(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.OpenTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), id, actingEmployee(c, req.EmployeeID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Frees a table whose order is no longer open
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table id"
// @Success 200 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Router /table/{id}/close [post]
func (h *TablesHandler) Close(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Edits status, capacity, name or notes of a table
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table id"
// @Param body body dto.UpdateTableRequest true "Fields to change"
// @Success 200 {object} dto.TableResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /table/{id} [put]
func (h *TablesHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
