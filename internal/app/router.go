package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agency-scheduler/internal/metrics"
)

// NewRouter builds the gin engine. The OAuth callback, health check and
// metrics endpoint stay outside the bearer-auth boundary.
func NewRouter(a *App, authMW gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	if authMW != nil {
		api.Use(authMW)
	}
	api.Use(func(c *gin.Context) {
		metrics.IncHTTP(c.FullPath())
		c.Next()
	})
	{
		users := api.Group("/users")
		{
			users.GET("/:id/availability", a.GetAvailabilityHandler)
			users.POST("/:id/availability", a.SetAvailabilityHandler)
			users.GET("/:id/slots", a.GetSlotsHandler)
			users.POST("/:id/meetings", a.BookMeetingHandler)
			users.GET("/:id/meetings", a.ListMeetingsHandler)
		}
		api.GET("/calendar/auth", a.GoogleAuthHandler)
	}

	return router
}
