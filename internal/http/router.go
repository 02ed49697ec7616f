// README: HTTP route registration and middleware wiring.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusride/internal/config"
	"campusride/internal/http/handlers"
	"campusride/internal/http/middleware"
	"campusride/internal/modules/application"
	"campusride/internal/modules/auth"
	"campusride/internal/modules/driver"
	"campusride/internal/modules/matching"
	"campusride/internal/modules/prebook"
	"campusride/internal/modules/ride"
)

type RouterDeps struct {
	Ride         *ride.Service
	Driver       *driver.Service
	Matching     *matching.Service
	PreBook      *prebook.Service
	Applications *application.Service
	Auth         *auth.Service
	Verifier     middleware.TokenVerifier
	Config       *config.Config
	Logger       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Metrics(),
		middleware.RateLimit(deps.Config.RateLimit.RequestsPerMinute, deps.Config.RateLimit.Burst),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Auth)
	rideHandler := handlers.NewRideHandler(deps.Ride, deps.Matching)
	driverHandler := handlers.NewDriverHandler(deps.Driver)
	preBookHandler := handlers.NewPreBookHandler(deps.PreBook)
	appHandler := handlers.NewApplicationHandler(deps.Applications)
	adminHandler := handlers.NewAdminHandler(deps.Ride, deps.Driver, deps.Applications)

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	// Applications come from people who do not have hero accounts yet.
	api.POST("/applications", appHandler.Submit)
	api.GET("/rides/locations", rideHandler.Locations)

	authed := api.Group("", middleware.Auth(deps.Verifier))

	rider := authed.Group("", middleware.RequireRole(auth.RoleRider, auth.RoleAdmin))
	rider.POST("/rides", rideHandler.Create)
	rider.GET("/rides/eligible", rideHandler.Eligible)
	rider.POST("/prebook", preBookHandler.Create)
	rider.GET("/prebook", preBookHandler.List)
	rider.PUT("/prebook/:id/status", preBookHandler.UpdateStatus)

	hero := authed.Group("", middleware.RequireRole(auth.RoleHero, auth.RoleAdmin))
	hero.GET("/rides/requests", rideHandler.ListRequests)
	hero.POST("/rides/accept", rideHandler.Accept)
	hero.GET("/rides/driver/:id/current", rideHandler.Current)
	hero.GET("/rides/driver/:id/stats", driverHandler.Stats)
	hero.PUT("/rides/driver/:id/status", driverHandler.SetOnline)

	// Either side of a ride may decline or drive the status forward.
	authed.POST("/rides/decline", rideHandler.Decline)
	authed.PUT("/rides/:id/status", rideHandler.UpdateStatus)
	authed.GET("/rides/drivers", driverHandler.List)
	authed.GET("/rides/:id", rideHandler.Get)

	admin := authed.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	admin.GET("/applications", appHandler.List)
	admin.PUT("/applications/:id/decision", appHandler.Decide)
	admin.GET("/overview", adminHandler.Overview)

	return r
}
