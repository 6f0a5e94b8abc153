package dto

type RegisterRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
	Category    string `json:"app_category"`
	Remark      string `json:"remark"`
}

type LoginRequest struct {
	MachineCode string `json:"machineCode" binding:"required"`
}

type RechargeRequest struct {
	MachineCode  string `json:"machineCode" binding:"required"`
	CardNumber   string `json:"card_number" binding:"required"`
	CardPassword string `json:"card_password" binding:"required"`
}
