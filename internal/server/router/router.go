package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(journal *handlers.JournalHandler, auth *handlers.AuthHandler, lookup *handlers.LookupHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.GET("/snapshot", journal.GetSnapshot)
		api.GET("/sync/status", journal.SyncStatus)

		api.PUT("/apiaries", journal.SaveApiary)
		api.DELETE("/apiaries/:id", journal.DeleteApiary)

		api.PUT("/apiaries/:id/hives", journal.SaveHive)
		api.DELETE("/apiaries/:id/hives/:hiveID", journal.DeleteHive)

		api.PUT("/apiaries/:id/hives/:hiveID/inspections", journal.SaveInspection)
		api.DELETE("/apiaries/:id/hives/:hiveID/inspections/:inspectionID", journal.DeleteInspection)

		api.PUT("/apiaries/:id/hives/:hiveID/movements", journal.SaveMovement)
		api.DELETE("/apiaries/:id/hives/:hiveID/movements/:movementID", journal.DeleteMovement)

		api.PUT("/apiaries/:id/hives/:hiveID/production", journal.SaveProduction)
		api.DELETE("/apiaries/:id/hives/:hiveID/production/:recordID", journal.DeleteProduction)

		api.POST("/transfers", journal.Transfer)

		api.PUT("/events", journal.SaveEvent)
		api.DELETE("/events/:id", journal.DeleteEvent)

		api.PUT("/seasonal-notes", journal.SaveSeasonalNote)
		api.PUT("/location", journal.SaveLocation)

		api.POST("/selection", journal.Select)
		api.GET("/selection", journal.Selection)

		api.GET("/weather", lookup.CurrentWeather)
		api.GET("/weather/search", lookup.SearchPlaces)
		api.POST("/advice", lookup.Advice)
		api.POST("/calendar/export", lookup.ExportEvent)
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signin", auth.SignIn)
		authGroup.POST("/signup", auth.SignUp)
		authGroup.POST("/signout", auth.SignOut)
		authGroup.POST("/recover", auth.Recover)
		authGroup.POST("/password", auth.UpdatePassword)
		authGroup.POST("/deeplink", auth.DeepLink)
		authGroup.GET("/state", auth.SessionState)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
