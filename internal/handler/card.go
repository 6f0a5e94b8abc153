package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/makkenzo/entitlement-service/pkg/pagination"
	"go.uber.org/zap"
)

type CardHandler struct {
	service  *service.CardService
	pageSize int
	logger   *zap.Logger
}

func NewCardHandler(service *service.CardService, pageSize int, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		service:  service,
		pageSize: pageSize,
		logger:   logger.Named("CardHandler"),
	}
}

func (h *CardHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	requested := pageParam(c)

	p, err := h.service.Page(ctx, requested, h.pageSize)
	if err == nil && requested > p.TotalPages {
		p, err = h.service.Page(ctx, pagination.Clamp(requested, p.TotalPages), h.pageSize)
	}
	if err != nil {
		h.logger.Error("Failed to list cards", zap.Int("page", requested), zap.Error(err))
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
		resp.Code, resp.Msg = dto.CodeCardListEmpty, "No cards"
	}
	for _, cd := range p.Records {
		resp.Data = append(resp.Data, cd.Row())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CardHandler) Search(c *gin.Context) {
	var q dto.KeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}

	cd, err := h.service.Search(c.Request.Context(), q.Key)
	if err != nil {
		if errors.Is(err, ierr.ErrCardNotFound) {
			result(c, dto.CodeCardNotFound, "Card not found")
			return
		}
		h.logger.Error("Failed to search card", zap.String("card_number", q.Key), zap.Error(err))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.RowResponse{Code: dto.CodeOK, Msg: "ok", Data: cd.Row()})
}

func (h *CardHandler) Issue(c *gin.Context) {
	var req dto.IssueCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(err)
		return
	}

	cards, err := h.service.Issue(c.Request.Context(), req.Count, req.Days)
	if err != nil {
		h.logger.Error("Card issuance failed", zap.Int("count", req.Count), zap.Int("days", req.Days), zap.Error(err))
		result(c, dto.CodeCardIssueFail, "Card issuance failed")
		return
	}

	resp := dto.IssueCardsResponse{Code: dto.CodeOK, Msg: "Cards issued", Data: make([][]any, 0, len(cards))}
	for _, cd := range cards {
		resp.Data = append(resp.Data, cd.Issued())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CardHandler) Delete(c *gin.Context) {
	cardNumber := c.Param("cardNumber")

	if err := h.service.Delete(c.Request.Context(), cardNumber); err != nil {
		if errors.Is(err, ierr.ErrCardNotFound) {
			result(c, dto.CodeCardNotFound, "Card not found")
			return
		}
		h.logger.Error("Failed to delete card", zap.String("card_number", cardNumber), zap.Error(err))
		result(c, dto.CodeCardDeleteFail, "Failed to delete card")
		return
	}
	h.logger.Info("Card deleted", zap.String("card_number", cardNumber))
	c.JSON(http.StatusOK, dto.OK("Card deleted"))
}
