// README: Entry point; loads config, wires services, starts HTTP server and background sweep.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusride/internal/config"
	httptransport "campusride/internal/http"
	"campusride/internal/infra"
	"campusride/internal/logging"
	"campusride/internal/modules/application"
	"campusride/internal/modules/auth"
	"campusride/internal/modules/driver"
	"campusride/internal/modules/matching"
	"campusride/internal/modules/prebook"
	"campusride/internal/modules/pricing"
	"campusride/internal/modules/ride"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("db init", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool), cfg.Fare)

	presence := driver.NewPresenceStore(redisClient)
	driverStore := driver.NewStore(dbPool)
	driverSvc := driver.NewService(driverStore, presence)

	matchingSvc := matching.NewService(presence, driverStore)

	rideSvc := ride.NewService(ride.NewStore(dbPool), matchingSvc, pricingSvc, cfg.Ride, logger)
	preBookSvc := prebook.NewService(prebook.NewStore(dbPool), pricingSvc)
	applicationSvc := application.NewService(application.NewStore(dbPool))

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(auth.NewStore(dbPool), issuer)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Ride:         rideSvc,
		Driver:       driverSvc,
		Matching:     matchingSvc,
		PreBook:      preBookSvc,
		Applications: applicationSvc,
		Auth:         authSvc,
		Verifier:     issuer,
		Config:       &cfg,
		Logger:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go rideSvc.RunExpirySweep(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
