package automation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/service/campaign"
)

type Handler struct {
	service *campaign.Service
}

func NewHandler(service *campaign.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	rule := ruleFromRequest(&req)
	if err := h.service.CreateRule(c.Request.Context(), rule); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rule))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid rule ID"))
		return
	}

	var req model.CreateAutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	rule := ruleFromRequest(&req)
	rule.ID = id
	if err := h.service.UpdateRule(c.Request.Context(), rule); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rule))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid rule ID"))
		return
	}

	rule, err := h.service.GetRule(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rule))
}

func (h *Handler) List(c *gin.Context) {
	enabledOnly := c.Query("enabled") == "true"
	rules, err := h.service.ListRules(c.Request.Context(), enabledOnly)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rules))
}

func ruleFromRequest(req *model.CreateAutomationRuleRequest) *model.AutomationRule {
	rule := &model.AutomationRule{
		Name:               req.Name,
		Kind:               model.RuleKind(req.Kind),
		Enabled:            req.Enabled,
		TriggerThreshold:   req.TriggerThreshold,
		CooldownDays:       req.CooldownDays,
		SendHourFrom:       req.SendHourFrom,
		SendHourTo:         req.SendHourTo,
		DailyCap:           req.DailyCap,
		LifetimeCap:        req.LifetimeCap,
		CouponPercent:      req.CouponPercent,
		CouponValidityDays: req.CouponValidityDays,
	}
	if req.CouponCode != "" {
		code := req.CouponCode
		rule.CouponCode = &code
	}
	return rule
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rules := r.Group("/automation-rules")
	{
		rules.POST("", h.Create)
		rules.PUT("/:id", h.Update)
		rules.GET("/:id", h.Get)
		rules.GET("", h.List)
	}
}
