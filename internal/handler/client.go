package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/crypto"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/service"
	"go.uber.org/zap"
)

const (
	timestampHeader = "timestamp"
	signatureHeader = "sign"
)

// ClientHandler serves the endpoints called by licensed client software.
type ClientHandler struct {
	licenses  *service.LicenseService
	cards     *service.CardService
	ciphers   *service.CipherConfigService
	signature *service.SignatureAuthenticator
	clock     clock.Clock
	appCfg    config.AppConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewClientHandler(
	licenses *service.LicenseService,
	cards *service.CardService,
	ciphers *service.CipherConfigService,
	signature *service.SignatureAuthenticator,
	clk clock.Clock,
	appCfg *config.AppConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ClientHandler {
	return &ClientHandler{
		licenses:  licenses,
		cards:     cards,
		ciphers:   ciphers,
		signature: signature,
		clock:     clk,
		appCfg:    *appCfg,
		metrics:   m,
		logger:    logger.Named("ClientHandler"),
	}
}

func (h *ClientHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": dto.CodeOK, "msg": "ok", "nowtime": clock.NowString(h.clock)})
}

func (h *ClientHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind registration request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	lic, err := h.licenses.Register(c.Request.Context(), service.RegisterRequest{
		MachineCode: req.MachineCode,
		Category:    req.Category,
		Remark:      req.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, ierr.ErrAlreadyExists):
			result(c, dto.CodeRegDuplicate, "Machine code already registered")
		case errors.Is(err, ierr.ErrValidation) && license.MachineCodeTooLong(req.MachineCode):
			result(c, dto.CodeRegOversize, "Machine code is too long")
		case errors.Is(err, ierr.ErrCategoryNotFound):
			result(c, dto.CodeCategoryNotFound, "Category does not exist")
		default:
			h.logger.Error("Registration failed", zap.String("machine_code", req.MachineCode), zap.Error(err))
			result(c, dto.CodeRegFailed, "Registration failed")
		}
		return
	}

	c.JSON(http.StatusOK, dto.Result{Code: dto.CodeOK, Msg: "Registration successful", ExpireDate: lic.ExpireDate})
}

// Login answers with the encrypted verdict. Signature failures are returned
// in the clear since no cipher material may be chosen for an unauthenticated
// caller.
func (h *ClientHandler) Login(c *gin.Context) {
	if !h.appCfg.NetworkAuth {
		c.JSON(http.StatusOK, dto.Result{Code: dto.CodeOK, Msg: "Network verification disabled", ExpireDate: license.NeverExpires})
		return
	}

	timestamp, sign := c.GetHeader(timestampHeader), c.GetHeader(signatureHeader)
	if timestamp == "" || sign == "" {
		h.countLogin(dto.CodeSignMissing)
		result(c, dto.CodeSignMissing, "Missing signature")
		return
	}

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind login request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	err := h.signature.Verify(ctx, req.MachineCode, timestamp, sign)
	switch {
	case errors.Is(err, ierr.ErrMissingSignature):
		h.countLogin(dto.CodeSignMissing)
		result(c, dto.CodeSignMissing, "Missing signature")
		return
	case err != nil:
		h.countLogin(dto.CodeSignInvalid)
		result(c, dto.CodeSignInvalid, "Invalid signature")
		return
	}

	now := h.clock.Now()
	verdict := dto.LoginVerdict{NowTime: now.Unix()}
	configID := cipherconfig.DefaultID

	checked, err := h.licenses.CheckLogin(ctx, req.MachineCode)
	switch {
	case errors.Is(err, ierr.ErrLicenseNotFound):
		verdict.Code, verdict.Msg = dto.CodeLoginUnknown, "Machine code not registered"
	case err != nil:
		h.logger.Error("Login check failed", zap.String("machine_code", req.MachineCode), zap.Error(err))
		_ = c.Error(err)
		return
	default:
		verdict.ExpireDate = checked.ExpireDate
		verdict.NowTime = checked.ServerTime.Unix()
		if checked.CipherConfigID != "" {
			configID = checked.CipherConfigID
		}
		if checked.Valid {
			verdict.Code, verdict.Msg = dto.CodeOK, "Login successful"
		} else {
			verdict.Code, verdict.Msg = dto.CodeLoginExpired, "License expired"
		}
	}

	material, err := h.ciphers.Resolve(ctx, configID)
	if err != nil {
		h.logger.Error("Failed to resolve cipher material", zap.String("config_id", configID), zap.Error(err))
		_ = c.Error(err)
		return
	}

	plaintext, err := json.Marshal(verdict)
	if err != nil {
		_ = c.Error(err)
		return
	}
	body, err := crypto.EncryptToBase64(plaintext, material.Key, material.IV)
	if err != nil {
		h.logger.Error("Failed to encrypt login verdict", zap.String("config_id", material.ConfigID), zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.countLogin(verdict.Code)
	c.String(http.StatusOK, body)
}

func (h *ClientHandler) countLogin(code int) {
	h.metrics.Logins.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (h *ClientHandler) Recharge(c *gin.Context) {
	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind recharge request", zap.Error(err))
		_ = c.Error(err)
		return
	}

	res, err := h.cards.Redeem(c.Request.Context(), req.MachineCode, req.CardNumber, req.CardPassword)
	if err != nil {
		switch {
		case errors.Is(err, ierr.ErrLicenseNotFound):
			result(c, dto.CodeRedeemNoLicense, "Machine code not registered")
		case errors.Is(err, ierr.ErrCardNotFound):
			result(c, dto.CodeRedeemNoCard, "Card number or password is wrong")
		case errors.Is(err, ierr.ErrAlreadyUsed):
			result(c, dto.CodeRedeemUsed, "Card has already been used")
		default:
			result(c, dto.CodeRedeemFailed, "Recharge failed")
		}
		return
	}

	c.JSON(http.StatusOK, dto.Result{Code: dto.CodeOK, Msg: "Recharge successful", ExpireDate: res.NewExpireDate})
}
