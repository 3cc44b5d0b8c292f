// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/alertbridge/internal/api/alerts"
	"github.com/good-yellow-bee/alertbridge/internal/api/phones"
	"github.com/good-yellow-bee/alertbridge/internal/api/whatsapp"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address        string
	JWTSecret      []byte
	AccessTokenTTL time.Duration

	// Dashboard login pair. Password may be plaintext or a bcrypt hash.
	Username string
	Password string

	Development bool
	Verbose     bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.Username == "" {
		c.Username = "admin"
	}
}

// Server is the HTTP API server.
type Server struct {
	config    *Config
	processor alerts.Processor
	alertLog  alerts.AlertLog
	gateway   whatsapp.Gateway
	directory phones.Directory
	server    *http.Server
}

// New creates a new API server.
func New(cfg *Config, proc alerts.Processor, alertLog alerts.AlertLog, gw whatsapp.Gateway, dir phones.Directory) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if proc == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if alertLog == nil {
		return nil, fmt.Errorf("alert log is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if dir == nil {
		return nil, fmt.Errorf("recipient directory is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("dashboard password is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:    cfg,
		processor: proc,
		alertLog:  alertLog,
		gateway:   gw,
		directory: dir,
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// Alert ingestion is synchronous and may hold a request across
		// several rate-limited sends, so the write timeout is generous.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
