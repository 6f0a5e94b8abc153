package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/makkenzo/entitlement-service/pkg/pagination"
	"go.uber.org/zap"
)

type LicenseHandler struct {
	service  *service.LicenseService
	pageSize int
	logger   *zap.Logger
}

func NewLicenseHandler(service *service.LicenseService, pageSize int, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:  service,
		pageSize: pageSize,
		logger:   logger.Named("LicenseHandler"),
	}
}

func (h *LicenseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	requested := pageParam(c)

	p, err := h.service.Page(ctx, requested, h.pageSize)
	if err == nil && requested > p.TotalPages {
		p, err = h.service.Page(ctx, pagination.Clamp(requested, p.TotalPages), h.pageSize)
	}
	if err != nil {
		h.logger.Error("Failed to list licenses", zap.Int("page", requested), zap.Error(err))
		_ = c.Error(err)
		return
	}

	resp := dto.PageResponse{
		Code:       dto.CodeOK,
		Msg:        "ok",
		TotalCount: p.TotalCount,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Data:       make([][]any, 0, len(p.Records)),
	}
	if p.TotalCount == 0 {
		resp.Code, resp.Msg = dto.CodeLicenseListEmpty, "No licenses"
	}
	for _, lic := range p.Records {
		resp.Data = append(resp.Data, lic.Row())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LicenseHandler) Search(c *gin.Context) {
	var q dto.KeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}

	lic, err := h.service.Find(c.Request.Context(), q.Key)
	if err != nil {
		if errors.Is(err, ierr.ErrLicenseNotFound) {
			result(c, dto.CodeLicenseNotFound, "License not found")
			return
		}
		h.logger.Error("Failed to search license", zap.String("machine_code", q.Key), zap.Error(err))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.RowResponse{Code: dto.CodeOK, Msg: "ok", Data: lic.Row()})
}

func (h *LicenseHandler) Create(c *gin.Context) {
	var req dto.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(err)
		return
	}

	lic, err := h.service.Register(c.Request.Context(), service.RegisterRequest{
		MachineCode: req.MachineCode,
		ExpireDate:  req.ExpireDate,
		Category:    req.Category,
		Remark:      req.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, ierr.ErrAlreadyExists):
			result(c, dto.CodeRegDuplicate, "Machine code already registered")
		case errors.Is(err, ierr.ErrValidation) && license.MachineCodeTooLong(req.MachineCode):
			result(c, dto.CodeRegOversize, "Machine code is too long")
		case errors.Is(err, ierr.ErrValidation):
			result(c, dto.CodeRegFailed, err.Error())
		case errors.Is(err, ierr.ErrCategoryNotFound):
			result(c, dto.CodeCategoryNotFound, "Category does not exist")
		default:
			h.logger.Error("Service failed to create license", zap.String("machine_code", req.MachineCode), zap.Error(err))
			result(c, dto.CodeRegFailed, "Registration failed")
		}
		return
	}

	h.logger.Info("License created via admin", zap.String("machine_code", lic.MachineCode))
	c.JSON(http.StatusOK, dto.Result{Code: dto.CodeOK, Msg: "License created", ExpireDate: lic.ExpireDate})
}

func (h *LicenseHandler) UpdateExpire(c *gin.Context) {
	var req dto.UpdateExpireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.Renew(c.Request.Context(), req.MachineCode, req.ExpireDate); err != nil {
		h.logger.Warn("Failed to update expiry", zap.String("machine_code", req.MachineCode), zap.Error(err))
		h.updateFailed(c, err, dto.CodeExpireUpdateFail, "Failed to update expiry")
		return
	}
	c.JSON(http.StatusOK, dto.Result{Code: dto.CodeOK, Msg: "Expiry updated", ExpireDate: req.ExpireDate})
}

func (h *LicenseHandler) UpdateCategory(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.SetCategory(c.Request.Context(), req.MachineCode, req.Category); err != nil {
		h.logger.Warn("Failed to assign category", zap.String("machine_code", req.MachineCode), zap.Error(err))
		if errors.Is(err, ierr.ErrCategoryNotFound) {
			result(c, dto.CodeCategoryNotFound, "Category does not exist")
			return
		}
		h.updateFailed(c, err, dto.CodeCategoryAssignFail, "Failed to assign category")
		return
	}
	c.JSON(http.StatusOK, dto.OK("Category updated"))
}

func (h *LicenseHandler) UpdateRemark(c *gin.Context) {
	var req dto.UpdateRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.SetRemark(c.Request.Context(), req.MachineCode, req.Remark); err != nil {
		h.logger.Warn("Failed to update remark", zap.String("machine_code", req.MachineCode), zap.Error(err))
		h.updateFailed(c, err, dto.CodeRemarkUpdateFail, "Failed to update remark")
		return
	}
	c.JSON(http.StatusOK, dto.OK("Remark updated"))
}

func (h *LicenseHandler) UpdateCipher(c *gin.Context) {
	var req dto.UpdateCipherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.SetCipherConfig(c.Request.Context(), req.MachineCode, req.ConfigID); err != nil {
		h.logger.Warn("Failed to assign cipher config", zap.String("machine_code", req.MachineCode), zap.Error(err))
		h.updateFailed(c, err, dto.CodeCipherAssignFail, "Failed to assign cipher config")
		return
	}
	c.JSON(http.StatusOK, dto.OK("Cipher config assigned"))
}

func (h *LicenseHandler) Delete(c *gin.Context) {
	machineCode := c.Param("machineCode")

	if err := h.service.Delete(c.Request.Context(), machineCode); err != nil {
		h.logger.Warn("Failed to delete license", zap.String("machine_code", machineCode), zap.Error(err))
		h.updateFailed(c, err, dto.CodeLicenseDelFail, "Failed to delete license")
		return
	}
	h.logger.Info("License deleted", zap.String("machine_code", machineCode))
	c.JSON(http.StatusOK, dto.OK("License deleted"))
}

// updateFailed renders a single-record mutation failure. A missing license
// has its own code so operators can tell it apart from a store failure.
func (h *LicenseHandler) updateFailed(c *gin.Context, err error, code int, msg string) {
	switch {
	case errors.Is(err, ierr.ErrLicenseNotFound):
		result(c, dto.CodeLicenseNotFound, "License not found")
	case errors.Is(err, ierr.ErrValidation):
		result(c, code, err.Error())
	default:
		result(c, code, msg)
	}
}
