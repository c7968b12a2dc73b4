// Package mdns advertises a Pagebound server on the local network so reading
// apps can find it without manual configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type for Pagebound servers.
	ServiceType = "_pagebound._tcp"

	// APIVersion is advertised in TXT records; it matches the /api/v1 prefix.
	APIVersion = "v1"
)

// Advertisement is what the server publishes about itself.
type Advertisement struct {
	Name    string
	Version string
	Port    int
}

// TXT returns the TXT records for the advertisement.
func (a Advertisement) TXT() []string {
	return []string{
		"name=" + a.Name,
		"version=" + a.Version,
		"api=" + APIVersion,
		"auth=paseto-v4",
	}
}

// Service manages mDNS advertisement for the Pagebound server.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising. Call it after the HTTP server is listening.
// Errors are usually non-fatal: containers and some clouds drop multicast.
func (s *Service) Start(ad Advertisement) error {
	if ad.Port <= 0 || ad.Port > 65535 {
		return fmt.Errorf("invalid port %d", ad.Port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "pagebound-server"
	}

	service, err := mdns.NewMDNSService(
		host,        // instance name
		ServiceType, // service
		"",          // domain, empty is .local
		"",          // host, empty uses the system hostname
		ad.Port,
		nil, // all interfaces
		ad.TXT(),
	)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", ad.Port,
		"name", ad.Name,
	)
	return nil
}

// Stop stops advertising. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}

// Running reports whether the advertisement is live.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}
