package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
)

// Engine results always travel with HTTP 200; the outcome is in the body code.
func result(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, dto.Fail(code, msg))
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
