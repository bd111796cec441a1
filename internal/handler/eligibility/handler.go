package eligibility

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/service/eligibility"
	"github.com/lavapop/outreach-api/pkg/metrics"
	"github.com/lavapop/outreach-api/pkg/validator"
)

type Handler struct {
	service *eligibility.Service
	metrics *metrics.Metrics
}

func NewHandler(service *eligibility.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) Check(c *gin.Context) {
	var req model.CheckEligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	verdict, err := h.service.Check(c.Request.Context(), validator.NormalizeCPF(req.Doc), req.CampaignType, req.BypassGlobal)
	if err != nil {
		handler.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.EligibilityChecks.WithLabelValues(verdict.Reason).Inc()
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(verdict))
}

func (h *Handler) CheckBatch(c *gin.Context) {
	var req model.CheckEligibilityBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	docs := make([]string, 0, len(req.Docs))
	for _, d := range req.Docs {
		docs = append(docs, validator.NormalizeCPF(d))
	}

	verdicts, err := h.service.CheckBatch(c.Request.Context(), docs, req.CampaignType, req.BypassGlobal)
	if err != nil {
		handler.Error(c, err)
		return
	}

	if h.metrics != nil {
		for _, v := range verdicts {
			h.metrics.EligibilityChecks.WithLabelValues(v.Reason).Inc()
		}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(verdicts))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	eligibility := r.Group("/eligibility")
	{
		eligibility.POST("/check", h.Check)
		eligibility.POST("/check-batch", h.CheckBatch)
	}
}
