package transaction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/service/ledger"
)

type Handler struct {
	service *ledger.Service
}

func NewHandler(service *ledger.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ingest(c *gin.Context) {
	var req model.IngestTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tx, err := h.service.IngestTransaction(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if tx == nil {
		// Duplicate row, already imported
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"skipped": true}))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tx))
}

func (h *Handler) IngestBatch(c *gin.Context) {
	var reqs []*model.IngestTransactionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.IngestBatch(c.Request.Context(), reqs)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	transactions := r.Group("/transactions")
	{
		transactions.POST("", h.Ingest)
		transactions.POST("/batch", h.IngestBatch)
	}
}
