package dto

type Result struct {
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
	ExpireDate string `json:"expireDate,omitempty"`
}

func OK(msg string) Result {
	return Result{Code: CodeOK, Msg: msg}
}

func Fail(code int, msg string) Result {
	return Result{Code: code, Msg: msg}
}

// LoginVerdict is serialized, encrypted and base64 encoded before it is
// returned to the client.
type LoginVerdict struct {
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
	ExpireDate string `json:"expireDate,omitempty"`
	NowTime    int64  `json:"nowtime"`
}

type PageResponse struct {
	Code       int     `json:"code"`
	Msg        string  `json:"msg"`
	TotalCount int64   `json:"totalCount"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
	Data       [][]any `json:"data"`
}

type RowResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []any  `json:"data,omitempty"`
}

type IssueCardsResponse struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data [][]any `json:"data"`
}
