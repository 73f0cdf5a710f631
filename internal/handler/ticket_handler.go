package handler

import (
	"net/http"
	"time"

	"go-parking-payment/internal/model"
	"go-parking-payment/internal/service"
	apperrors "go-parking-payment/pkg/app_errors"
	"go-parking-payment/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TicketWatcher 購票後把使用者納入到期提醒掃描
type TicketWatcher interface {
	WatchUser(userID int)
}

type TicketHandler struct {
	service             service.TicketService
	watcher             TicketWatcher
	defaultExtensionMin int
}

func NewTicketHandler(service service.TicketService, watcher TicketWatcher, defaultExtensionMin int) *TicketHandler {
	return &TicketHandler{
		service:             service,
		watcher:             watcher,
		defaultExtensionMin: defaultExtensionMin,
	}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group("/api/v1", auth)
	{
		router.GET("tickets", h.List)
		router.GET("tickets/current", h.Current)
		router.POST("tickets", h.Purchase)
		router.POST("tickets/:id/extend", h.Extend)
	}
}

// PurchaseTicketRequest 購票請求
type PurchaseTicketRequest struct {
	Plate           string `json:"plate" binding:"required"`
	Zone            string `json:"zone" binding:"required"`
	DurationMin     int    `json:"duration_min" binding:"required,min=1"`
	StartISO        string `json:"startISO"` // 空字串表示立即開始
	NotifyBeforeEnd bool   `json:"notify_before_end"`
}

// ExtendTicketRequest 延長請求；分鐘數省略時用伺服器預設值
type ExtendTicketRequest struct {
	Minutes int `json:"minutes" binding:"omitempty,min=1"`
}

// TicketResponse 票券響應：持久化欄位加上推導出的時間狀態
type TicketResponse struct {
	model.ParkingTicket
	TemporalStatus model.TemporalStatus `json:"temporal_status"`
	RemainingSec   int                  `json:"remaining_sec"`
}

func toTicketResponse(t *model.ParkingTicket, now time.Time) TicketResponse {
	resp := TicketResponse{
		ParkingTicket:  *t,
		TemporalStatus: t.TemporalStatus(now),
		RemainingSec:   int(t.RemainingAt(now) / time.Second),
	}
	resp.ZoneName = t.DisplayZoneName()
	return resp
}

func (h *TicketHandler) List(c *gin.Context) {
	now := time.Now()
	tickets := h.service.List(c, currentUserID(c))

	resp := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, toTicketResponse(t, now))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TicketHandler) Current(c *gin.Context) {
	ticket := h.service.CurrentTicket(c, currentUserID(c))
	if ticket == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket, time.Now()))
}

func (h *TicketHandler) Purchase(c *gin.Context) {
	var req PurchaseTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	var startAt time.Time
	if req.StartISO != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartISO)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startISO"})
			return
		}
		startAt = parsed
	}

	userID := currentUserID(c)
	ticket, err := h.service.Purchase(c, userID, service.PurchaseTicketParams{
		Plate:           req.Plate,
		Zone:            req.Zone,
		StartAt:         startAt,
		DurationMin:     req.DurationMin,
		NotifyBeforeEnd: req.NotifyBeforeEnd,
	})
	if err != nil {
		h.handleError(c, err, "Purchase")
		return
	}

	if ticket.NotifyBeforeEnd && h.watcher != nil {
		h.watcher.WatchUser(userID)
	}
	c.JSON(http.StatusCreated, toTicketResponse(ticket, time.Now()))
}

func (h *TicketHandler) Extend(c *gin.Context) {
	ticketID := c.Param("id")

	// 空 body 等同快速延長(用預設分鐘數)
	var req ExtendTicketRequest
	if c.Request.ContentLength > 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}
	minutes := req.Minutes
	if minutes == 0 {
		minutes = h.defaultExtensionMin
	}

	ticket, extraCost, err := h.service.Extend(c, currentUserID(c), ticketID, minutes)
	if err != nil {
		h.handleError(c, err, "Extend")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket":     toTicketResponse(ticket, time.Now()),
		"extra_cost": extraCost,
	})
}

func (h *TicketHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case err == apperrors.ErrTicketNotFound:
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	case err == apperrors.ErrZoneNotFound:
		log.Warn("Unknown zone")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown zone"})
	case err == apperrors.ErrInsufficientBalance:
		log.Warn("Insufficient balance")
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Top up your balance to pay for this ticket"})
	case err == apperrors.ErrInvalidInput:
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
