package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gomate/internal/handler"
	"gomate/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ScheduleHandler     *handler.ScheduleHandler
	BookingHandler      *handler.BookingHandler
	HistoryHandler      *handler.HistoryHandler
	PreferenceHandler   *handler.PreferenceHandler
	ConnectivityHandler *handler.ConnectivityHandler
	StorageHandler      *handler.StorageHandler
	FavoritesHandler    *handler.FavoritesHandler
	IdempotencyCache    *gocache.Cache
	NewRelicApp         *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.IdempotencyCache))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Schedule routes.
		schedule := v1.Group("/schedule")
		{
			schedule.GET("", deps.ScheduleHandler.GetSchedule)
			schedule.POST("/refresh", deps.ScheduleHandler.RefreshSchedule)
			schedule.GET("/state", deps.ScheduleHandler.GetSyncState)
		}

		// Route routes.
		routes := v1.Group("/routes")
		{
			routes.GET("/search", deps.ScheduleHandler.SearchRoutes)
			routes.GET("/:id", deps.ScheduleHandler.GetRoute)
		}

		v1.GET("/stops/nearby", deps.ScheduleHandler.NearbyStops)

		// Booking routes.
		v1.POST("/bookings", deps.BookingHandler.Book)
		v1.GET("/tickets", deps.BookingHandler.GetTickets)

		// Trip history routes.
		history := v1.Group("/history")
		{
			history.GET("", deps.HistoryHandler.GetHistory)
			history.GET("/statistics", deps.HistoryHandler.GetStatistics)
			history.DELETE("", deps.HistoryHandler.ClearHistory)
			history.DELETE("/:id", deps.HistoryHandler.RemoveTrip)
		}

		// Preference routes.
		v1.GET("/preferences", deps.PreferenceHandler.GetPreferences)
		v1.PUT("/preferences", deps.PreferenceHandler.SavePreferences)
		v1.GET("/sync/last", deps.PreferenceHandler.GetLastSync)

		// Connectivity routes.
		v1.GET("/connectivity", deps.ConnectivityHandler.GetConnectivity)
		v1.POST("/connectivity", deps.ConnectivityHandler.SetConnectivity)
		v1.GET("/connectivity/stream", deps.ConnectivityHandler.StreamConnectivity)

		// Cache and storage routes.
		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/status", deps.StorageHandler.GetCacheStatus)
			cacheGroup.POST("/prune", deps.StorageHandler.PruneCache)
			cacheGroup.DELETE("", deps.StorageHandler.ClearCache)
		}
		v1.GET("/storage", deps.StorageHandler.GetStorageInfo)
		v1.DELETE("/storage", deps.StorageHandler.ClearStorage)

		// Favorite routes.
		v1.GET("/favorites", deps.FavoritesHandler.GetFavorites)
		v1.POST("/favorites", deps.FavoritesHandler.ToggleFavorite)
	}

	return router
}
