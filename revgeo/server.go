// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package revgeo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

const requestIDKey = "request_id"

// ServerOptions configuration for the HTTP front end.
type ServerOptions struct {
	// ListenAddr is the address to bind, host:port
	ListenAddr string

	// MaxConns caps concurrent connections at the listener. 0 means no cap.
	MaxConns int

	// APIKey protects /api/v1/resolve. Empty disables authentication.
	APIKey string
}

// Server is the HTTP front end of the resolution pipeline.
type Server struct {
	repo     AddressRepository
	resolver *Resolver
	logger   *logrus.Logger
	options  ServerOptions
}

// NewServer creates the HTTP front end. The API key is taken verbatim from
// the options; use LookupAPIKey to source it from the environment or from
// Google Cloud.
func NewServer(repo AddressRepository, resolver *Resolver, logger *logrus.Logger, options *ServerOptions) *Server {
	if options == nil {
		options = &ServerOptions{}
	}

	if options.ListenAddr == "" {
		options.ListenAddr = "localhost:8080"
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if options.APIKey == "" {
		logger.Warn("⚠️ no API key configured, /api/v1/resolve is open")
	}

	return &Server{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
		options:  *options,
	}
}

// LookupAPIKey resolves the API key the server should require:
// GEORELAY_API_KEY if set, otherwise the Google Cloud API Keys entry named
// "georelay" reachable through Application Default Credentials. Returns the
// empty string when neither source yields a key.
func LookupAPIKey(ctx context.Context, logger *logrus.Logger) string {
	if apiKey := os.Getenv("GEORELAY_API_KEY"); apiKey != "" {
		return apiKey
	}

	logger.Info("GEORELAY_API_KEY is not set. Attempting to retrieve via ADC...")

	apiKey, err := getAPIKeyFromADC(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to retrieve API key via ADC")

		return ""
	}

	logger.Info("✅ Successfully retrieved API key via ADC")

	return apiKey
}

func getAPIKeyFromADC(ctx context.Context) (string, error) {
	// 1. Get Project ID from ADC
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		return "", errors.New("no project ID in default credentials")
	}

	// 2. Create API Keys client
	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	// 3. List keys to find the one with the expected display name
	const targetDisplayName = "georelay"

	req := &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}

	it := client.ListKeys(ctx, req)

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName == targetDisplayName {
			// ListKeys redacts the KeyString; GetKeyString retrieves the secret.
			getReq := &apikeyspb.GetKeyStringRequest{
				Name: key.Name,
			}

			resp, err := client.GetKeyString(ctx, getReq)
			if err != nil {
				return "", fmt.Errorf("getting key string: %w", err)
			}

			if resp.KeyString == "" {
				return "", fmt.Errorf("key '%s' found but KeyString is empty after GetKeyString", targetDisplayName)
			}

			return resp.KeyString, nil
		}
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", targetDisplayName, projectID)
}

// Handler builds the gin engine with all routes registered. Exposed so tests
// can drive the server without a listener.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/api/v1/health", s.health)
	r.GET("/api/v1/resolve", s.requireAPIKey, s.resolveAddress)

	return r
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	listener, err := net.Listen("tcp", s.options.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.options.ListenAddr, err)
	}

	if s.options.MaxConns > 0 {
		listener = netutil.LimitListener(listener, s.options.MaxConns)
	}

	s.logger.WithField("addr", s.options.ListenAddr).Info("listening")

	return s.Handler().RunListener(listener)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		ctx.Set(requestIDKey, requestID)
		ctx.Writer.Header().Set("X-Request-Id", requestID)

		ctx.Next()

		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

func (s *Server) requireAPIKey(ctx *gin.Context) {
	if s.options.APIKey == "" {
		return
	}

	if ctx.GetHeader("X-Api-Key") != s.options.APIKey {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
	}
}

func (s *Server) resolveAddress(ctx *gin.Context) {
	req := &ResolveRequest{
		Geohash:  ctx.Query("geohash"),
		Language: ctx.Query("language"),
	}

	if raw := ctx.Query("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})

			return
		}

		req.Lat = lat
	}

	if raw := ctx.Query("lon"); raw != "" {
		lon, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon parameter"})

			return
		}

		req.Lon = lon
	}

	result, err := s.resolver.Resolve(ctx.Request.Context(), req)
	if err != nil {
		status := HTTPStatus(err)

		entry := s.logger.WithError(err).WithField(requestIDKey, ctx.GetString(requestIDKey))
		if status >= http.StatusInternalServerError {
			entry.Error("resolution failed")
		} else {
			entry.Warn("resolution rejected")
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	s.logger.WithFields(logrus.Fields{
		requestIDKey: ctx.GetString(requestIDKey),
		"geohash":    result.Geohash,
		"language":   req.Language,
		"cache_hit":  result.CacheHit,
	}).Info("resolved")

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) health(ctx *gin.Context) {
	cached, err := s.repo.Count()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cached": cached,
	})
}
