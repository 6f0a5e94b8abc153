package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/service"
	"go.uber.org/zap"
)

type CipherConfigHandler struct {
	service *service.CipherConfigService
	logger  *zap.Logger
}

func NewCipherConfigHandler(service *service.CipherConfigService, logger *zap.Logger) *CipherConfigHandler {
	return &CipherConfigHandler{
		service: service,
		logger:  logger.Named("CipherConfigHandler"),
	}
}

// List never exposes key material.
func (h *CipherConfigHandler) List(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list cipher configs", zap.Error(err))
		_ = c.Error(err)
		return
	}

	resp := dto.CipherConfigListResponse{Code: dto.CodeOK, Msg: "ok", Data: make([]dto.CipherConfigResponse, 0, len(configs))}
	for _, cfg := range configs {
		resp.Data = append(resp.Data, dto.NewCipherConfigResponse(cfg))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CipherConfigHandler) Generate(c *gin.Context) {
	cfg, err := h.service.Generate(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to generate cipher config", zap.Error(err))
		result(c, dto.CodeCipherGenFail, "Failed to generate cipher config")
		return
	}
	c.JSON(http.StatusOK, dto.CipherConfigCreatedResponse{
		Code:     dto.CodeOK,
		Msg:      "Cipher config generated",
		ConfigID: cfg.ConfigID,
		Name:     cfg.Name,
	})
}

func (h *CipherConfigHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ierr.ErrProtectedResource):
			result(c, dto.CodeCipherProtected, "The default cipher config cannot be deleted")
		case errors.Is(err, ierr.ErrCipherConfigNotFound):
			result(c, dto.CodeCipherDeleteFail, "Cipher config not found")
		default:
			h.logger.Error("Failed to delete cipher config", zap.String("config_id", id), zap.Error(err))
			result(c, dto.CodeCipherDeleteFail, "Failed to delete cipher config")
		}
		return
	}
	c.JSON(http.StatusOK, dto.OK("Cipher config deleted"))
}
