package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// productCacheTTL is short because the catalogue is edited by another service.
const productCacheTTL = 5 * time.Minute

// ProductsHandler serves catalogue lookups, cached in Redis when available.
type ProductsHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

// NewProductsHandler wires the lookup. rdb may be nil.
func NewProductsHandler(repo repository.ProductRepository, rdb *redis.Client) *ProductsHandler {
	return &ProductsHandler{repo: repo, rdb: rdb}
}

// Get godoc
// @Summary Looks up a product's current name and price
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product id"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /product/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cacheKey := "product:" + id.String()

	// 1. Try Redis cache
	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ProductResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	// 2. Cache miss, read the store
	p, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("product not found"))
			return
		}
		respondError(c, apierror.Internal(err, "failed to read product"))
		return
	}

	resp := dto.ProductResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Active:   p.Active,
	}

	// 3. Populate cache, best effort
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.WithoutCancel(ctx), cacheKey, b, productCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, resp)
}
