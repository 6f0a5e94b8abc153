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

type CategoryHandler struct {
	service *service.CategoryService
	logger  *zap.Logger
}

func NewCategoryHandler(service *service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  logger.Named("CategoryHandler"),
	}
}

func (h *CategoryHandler) List(c *gin.Context) {
	names, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		_ = c.Error(err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, dto.CategoryListResponse{Code: dto.CodeOK, Msg: "ok", Data: names})
}

func (h *CategoryHandler) Add(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.Add(c.Request.Context(), req.Name); err != nil {
		switch {
		case errors.Is(err, ierr.ErrAlreadyExists):
			result(c, dto.CodeCategoryExists, "Category already exists")
		default:
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, dto.OK("Category added"))
}

func (h *CategoryHandler) Remove(c *gin.Context) {
	name := c.Param("name")

	cleared, err := h.service.Remove(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, ierr.ErrCategoryNotFound) {
			result(c, dto.CodeCategoryNotFound, "Category does not exist")
			return
		}
		h.logger.Error("Failed to remove category", zap.String("category", name), zap.Error(err))
		_ = c.Error(err)
		return
	}
	h.logger.Info("Category removed", zap.String("category", name), zap.Int64("licenses_cleared", cleared))
	c.JSON(http.StatusOK, dto.OK("Category removed"))
}
