package blacklist

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lavapop/outreach-api/internal/handler"
	"github.com/lavapop/outreach-api/internal/model"
	"github.com/lavapop/outreach-api/internal/repository"
	"github.com/lavapop/outreach-api/pkg/validator"
)

type Handler struct {
	blacklist repository.BlacklistRepository
}

func NewHandler(blacklist repository.BlacklistRepository) *Handler {
	return &Handler{blacklist: blacklist}
}

func (h *Handler) Add(c *gin.Context) {
	var req model.AddBlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	phone := validator.NormalizePhone(req.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid phone number"))
		return
	}

	entry := &model.BlacklistEntry{Phone: phone, Reason: req.Reason}
	if err := h.blacklist.Add(c.Request.Context(), entry); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) Remove(c *gin.Context) {
	phone := validator.NormalizePhone(c.Param("phone"))
	if phone == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid phone number"))
		return
	}

	if err := h.blacklist.Remove(c.Request.Context(), phone); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) List(c *gin.Context) {
	entries, err := h.blacklist.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	blacklist := r.Group("/blacklist")
	{
		blacklist.POST("", h.Add)
		blacklist.DELETE("/:phone", h.Remove)
		blacklist.GET("", h.List)
	}
}
