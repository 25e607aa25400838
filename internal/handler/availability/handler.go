package availability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/handler"
	"github.com/petclinic/booking-api/internal/service/availability"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	avail := r.Group("/availability")
	{
		avail.GET("/slots", h.GetValidStartTimes)
		avail.GET("/summary", h.GetDateCapacitySummary)
	}
}

func (h *Handler) GetValidStartTimes(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format"))
		return
	}

	starts, err := h.service.ValidStartTimes(c.Request.Context(), date, serviceID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(starts))
}

func (h *Handler) GetDateCapacitySummary(c *gin.Context) {
	summary, err := h.service.DateCapacitySummary(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}
