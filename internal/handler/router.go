package handler

import "github.com/gin-gonic/gin"

type Handlers struct {
	Client       *ClientHandler
	License      *LicenseHandler
	Card         *CardHandler
	Category     *CategoryHandler
	CipherConfig *CipherConfigHandler
	Auth         *AuthHandler
	Dashboard    *DashboardHandler
	Health       *HealthHandler
}

// RegisterRoutes mounts the client endpoints at the root and the admin API
// under /admin behind adminAuth.
func RegisterRoutes(router gin.IRouter, h *Handlers, adminAuth gin.HandlerFunc) {
	router.GET("/", h.Client.Index)
	router.POST("/reg", h.Client.Register)
	router.POST("/login", h.Client.Login)
	router.POST("/recharge", h.Client.Recharge)

	if h.Health != nil {
		router.GET("/healthz", h.Health.Check)
	}

	admin := router.Group("/admin")
	admin.POST("/login", h.Auth.Login)
	admin.GET("/logout", h.Auth.Logout)

	secured := admin.Group("")
	secured.Use(adminAuth)
	{
		secured.GET("/dashboard", h.Dashboard.GetSummary)

		licenses := secured.Group("/licenses")
		licenses.GET("", h.License.List)
		licenses.GET("/search", h.License.Search)
		licenses.POST("", h.License.Create)
		licenses.POST("/expire", h.License.UpdateExpire)
		licenses.POST("/category", h.License.UpdateCategory)
		licenses.POST("/remark", h.License.UpdateRemark)
		licenses.POST("/cipher", h.License.UpdateCipher)
		licenses.DELETE("/:machineCode", h.License.Delete)

		cards := secured.Group("/cards")
		cards.GET("", h.Card.List)
		cards.GET("/search", h.Card.Search)
		cards.POST("", h.Card.Issue)
		cards.DELETE("/:cardNumber", h.Card.Delete)

		categories := secured.Group("/categories")
		categories.GET("", h.Category.List)
		categories.POST("", h.Category.Add)
		categories.DELETE("/:name", h.Category.Remove)

		ciphers := secured.Group("/cipher-configs")
		ciphers.GET("", h.CipherConfig.List)
		ciphers.POST("", h.CipherConfig.Generate)
		ciphers.DELETE("/:id", h.CipherConfig.Delete)
	}
}
