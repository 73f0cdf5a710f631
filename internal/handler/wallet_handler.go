package handler

import (
	"net/http"

	"go-parking-payment/internal/service"
	apperrors "go-parking-payment/pkg/app_errors"
	"go-parking-payment/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WalletHandler struct {
	service service.WalletService
}

func NewWalletHandler(service service.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	router := r.Group("/api/v1/wallet", auth)
	{
		router.GET("", h.GetBalance)
		router.POST("topup", h.TopUp)
		router.GET("topups", h.History)
	}
}

// TopUpRequest 儲值請求
type TopUpRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.service.GetBalance(c, currentUserID(c))
	if err != nil {
		h.handleError(c, err, "GetBalance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	balance, err := h.service.TopUp(c, currentUserID(c), req.Amount)
	if err != nil {
		h.handleError(c, err, "TopUp")
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.History(c, currentUserID(c)))
}

func (h *WalletHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case err == apperrors.ErrInvalidInput:
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
