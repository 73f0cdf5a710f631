package handler

import (
	"net/http"
	"sort"

	"go-parking-payment/internal/model"

	"github.com/gin-gonic/gin"
)

type ZoneHandler struct{}

func NewZoneHandler() *ZoneHandler {
	return &ZoneHandler{}
}

func (h *ZoneHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("zones", h.List)
	}
}

// ZoneResponse 區域響應
type ZoneResponse struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	RatePerHour float64 `json:"rate_per_hour"`
}

func (h *ZoneHandler) List(c *gin.Context) {
	zones := make([]ZoneResponse, 0, len(model.Zones))
	for code, z := range model.Zones {
		zones = append(zones, ZoneResponse{
			Code:        code,
			Name:        z.Name,
			RatePerHour: z.RatePerHour,
		})
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Code < zones[j].Code })

	c.JSON(http.StatusOK, zones)
}
