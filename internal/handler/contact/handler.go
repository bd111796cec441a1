package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/service/contact"
)

type Handler struct {
	service *contact.Service
}

func NewHandler(service *contact.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RecordAutomation(c *gin.Context) {
	var req model.RecordAutomationContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recorded, err := h.service.RecordAutomation(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(recorded))
}

func (h *Handler) RecordManual(c *gin.Context) {
	var req model.RecordManualContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recorded, err := h.service.RecordManual(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(recorded))
}

func (h *Handler) DeliveryCallback(c *gin.Context) {
	var req model.DeliveryCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.HandleDeliveryCallback(c.Request.Context(), &req); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid contact ID"))
		return
	}

	found, err := h.service.GetContact(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts")
	{
		contacts.POST("/automation", h.RecordAutomation)
		contacts.POST("/manual", h.RecordManual)
		contacts.POST("/delivery-callback", h.DeliveryCallback)
		contacts.GET("/:id", h.GetContact)
	}
}
