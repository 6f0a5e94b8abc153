package dto

import "github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type KeyQuery struct {
	Key string `form:"key" binding:"required"`
}

type CreateLicenseRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	ExpireDate  string `json:"expireDate"`
	Category    string `json:"app_category"`
	Remark      string `json:"remark"`
}

type UpdateExpireRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	ExpireDate  string `json:"expireDate" binding:"required"`
}

type UpdateCategoryRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	Category    string `json:"app_category"`
}

type UpdateRemarkRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	Remark      string `json:"remark"`
}

type UpdateCipherRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	ConfigID    string `json:"config_id" binding:"required"`
}

type IssueCardsRequest struct {
	Count int `json:"count" binding:"required,gte=1,lte=10000"`
	Days  int `json:"days" binding:"required,gte=1"`
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CategoryListResponse struct {
	Code int      `json:"code"`
	Msg  string   `json:"msg"`
	Data []string `json:"data"`
}

type CipherConfigResponse struct {
	ConfigID  string `json:"config_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	IsDefault bool   `json:"is_default"`
}

func NewCipherConfigResponse(cfg *cipherconfig.Config) CipherConfigResponse {
	return CipherConfigResponse{
		ConfigID:  cfg.ConfigID,
		Name:      cfg.Name,
		CreatedAt: cfg.CreatedAt,
		IsDefault: cfg.IsDefault,
	}
}

type CipherConfigListResponse struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data []CipherConfigResponse `json:"data"`
}

type CipherConfigCreatedResponse struct {
	Code     int    `json:"code"`
	Msg      string `json:"msg"`
	ConfigID string `json:"config_id"`
	Name     string `json:"name"`
}

type DashboardSummaryResponse struct {
	Licenses      int64  `json:"licenses"`
	Cards         int64  `json:"cards"`
	Categories    int    `json:"categories"`
	CipherConfigs int    `json:"cipher_configs"`
	ServerTime    string `json:"server_time"`
}
