package customer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/internal/service/segment"
	"github.com/lavapop/outreach-api/pkg/errors"
	"github.com/lavapop/outreach-api/pkg/validator"
)

type Handler struct {
	customers repository.CustomerRepository
	segments  *segment.Service
}

func NewHandler(customers repository.CustomerRepository, segments *segment.Service) *Handler {
	return &Handler{customers: customers, segments: segments}
}

func (h *Handler) Get(c *gin.Context) {
	doc := validator.NormalizeCPF(c.Param("doc"))
	if doc == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid customer document"))
		return
	}

	customer, err := h.customers.Get(c.Request.Context(), doc)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if customer == nil {
		handler.Error(c, errors.NewNotFound("customer", nil))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(customer))
}

func (h *Handler) List(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(customers))
}

func (h *Handler) RefreshMetrics(c *gin.Context) {
	doc := validator.NormalizeCPF(c.Param("doc"))
	if doc == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid customer document"))
		return
	}

	if err := h.segments.Refresh(c.Request.Context(), doc); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RefreshAllMetrics(c *gin.Context) {
	updated, err := h.segments.RefreshAll(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.GET("", h.List)
		customers.GET("/:doc", h.Get)
		customers.POST("/:doc/refresh-metrics", h.RefreshMetrics)
		customers.POST("/refresh-metrics", h.RefreshAllMetrics)
	}
}
