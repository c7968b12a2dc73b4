package providers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/api"
	"github.com/listenupapp/pagebound-server/internal/auth"
	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
	"github.com/listenupapp/pagebound-server/internal/mdns"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServices collects the services the API exposes.
func ProvideAPIServices(i do.Injector) (*api.Services, error) {
	return &api.Services{
		Reading:    do.MustInvoke[*service.ReadingService](i),
		Books:      do.MustInvoke[*service.BookService](i),
		Ratings:    do.MustInvoke[*service.RatingAggregator](i),
		Badges:     do.MustInvoke[*service.BadgeEvaluator](i),
		Streaks:    do.MustInvoke[*service.StreakTracker](i),
		Goals:      do.MustInvoke[*service.GoalService](i),
		Challenges: do.MustInvoke[*service.ChallengeService](i),
		Activity:   do.MustInvoke[*service.ActivityService](i),
	}, nil
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*JournalIndexHandle](i)
	limiter := do.MustInvoke[*WriteLimiterHandle](i)

	handler := api.NewServer(api.Deps{
		Services:       do.MustInvoke[*api.Services](i),
		Journal:        indexHandle.JournalIndex,
		Tokens:         do.MustInvoke[*auth.TokenService](i),
		SSE:            sseHandle.Manager,
		Database:       storeHandle.Store,
		WriteLimiter:   limiter.KeyedRateLimiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log.Logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService advertises the server on the local network.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("Failed to parse server port for mDNS, using default", "port", cfg.Server.Port)
		port = 8080
	}

	svc := mdns.NewService(log.Logger)
	ad := mdns.Advertisement{Name: cfg.Server.Name, Version: api.Version, Port: port}
	if err := svc.Start(ad); err != nil {
		// Non-fatal: the server works without discovery.
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}
	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
