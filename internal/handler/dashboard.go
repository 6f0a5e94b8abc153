package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	licenses   *service.LicenseService
	cards      *service.CardService
	categories *service.CategoryService
	ciphers    *service.CipherConfigService
	clock      clock.Clock
	logger     *zap.Logger
}

func NewDashboardHandler(
	licenses *service.LicenseService,
	cards *service.CardService,
	categories *service.CategoryService,
	ciphers *service.CipherConfigService,
	clk clock.Clock,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		licenses:   licenses,
		cards:      cards,
		categories: categories,
		ciphers:    ciphers,
		clock:      clk,
		logger:     logger.Named("DashboardHandler"),
	}
}

// GetSummary godoc
// @Summary      Get dashboard summary
// @Description  Record counts per collection and the server clock.
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.DashboardSummaryResponse
// @Router       /admin/dashboard [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()

	licenses, err := h.licenses.Page(ctx, 1, 1)
	if err != nil {
		h.logger.Error("Failed to count licenses", zap.Error(err))
		_ = c.Error(err)
		return
	}
	cards, err := h.cards.Page(ctx, 1, 1)
	if err != nil {
		h.logger.Error("Failed to count cards", zap.Error(err))
		_ = c.Error(err)
		return
	}
	categories, err := h.categories.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		_ = c.Error(err)
		return
	}
	configs, err := h.ciphers.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list cipher configs", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.DashboardSummaryResponse{
		Licenses:      licenses.TotalCount,
		Cards:         cards.TotalCount,
		Categories:    len(categories),
		CipherConfigs: len(configs),
		ServerTime:    clock.NowString(h.clock),
	})
}
