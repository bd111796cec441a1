package campaign

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/service/campaign"
	"github.com/lavapop/outreach-api/internal/service/contact"
)

type Handler struct {
	service  *campaign.Service
	contacts *contact.Service
}

func NewHandler(service *campaign.Service, contacts *contact.Service) *Handler {
	return &Handler{service: service, contacts: contacts}
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid campaign ID"))
		return
	}

	found, err := h.service.GetCampaign(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) List(c *gin.Context) {
	campaigns, err := h.service.ListCampaigns(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(campaigns))
}

func (h *Handler) ListContacts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid campaign ID"))
		return
	}

	contacts, err := h.contacts.ListByCampaign(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(contacts))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", h.List)
		campaigns.GET("/:id", h.Get)
		campaigns.GET("/:id/contacts", h.ListContacts)
	}
}
