// Package api provides the REST API server for midiremap
package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/midiremap/pkg/config"
	"github.com/james-see/midiremap/pkg/converter"
	"github.com/james-see/midiremap/pkg/remap"
)

// @title midiremap API
// @version 1.0
// @description API for remapping tempo and note-off events of MIDI files
// @host localhost:8080
// @BasePath /api/v1

// maxUploadSize limits the size of uploaded MIDI files
const maxUploadSize = 16 << 20

// StartServer starts the API server on the specified port
func StartServer(port int, logger *log.Logger) error {
	return NewRouter(logger).Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the API routes
func NewRouter(logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.Default()
	}
	s := &server{logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/remap", s.handleRemap)
		v1.POST("/events", s.handleEvents)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

type server struct {
	logger *log.Logger
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midiremap",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the accepted input formats and file extensions
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":    []string{string(converter.FormatMIDI)},
		"extensions": converter.SupportedExtensions(),
	})
}

// handleRemap godoc
// @Summary Remap a MIDI file
// @Description Upload a MIDI file and receive the remapped MIDI file
// @Tags remap
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "MIDI file to remap"
// @Param track query int false "Track index (default: 0)"
// @Param tempo_src query int false "Source tempo, requires tempo_tar"
// @Param tempo_tar query int false "Target tempo, requires tempo_src"
// @Param blank query int false "Blank beats before the first note (default: 0)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/remap [post]
func (s *server) handleRemap(c *gin.Context) {
	filename, result, ok := s.remapUpload(c)
	if !ok {
		return
	}

	outputName := filepath.Base(converter.OutputPath(filename))
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": outputName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, "audio/midi", result.Data)
}

// handleEvents godoc
// @Summary Dump the remapped events of a MIDI file
// @Description Upload a MIDI file and receive the remapped track as an event table
// @Tags remap
// @Accept multipart/form-data
// @Produce plain
// @Param file formData file true "MIDI file to remap"
// @Param track query int false "Track index (default: 0)"
// @Param tempo_src query int false "Source tempo, requires tempo_tar"
// @Param tempo_tar query int false "Target tempo, requires tempo_src"
// @Param blank query int false "Blank beats before the first note (default: 0)"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/events [post]
func (s *server) handleEvents(c *gin.Context) {
	_, result, ok := s.remapUpload(c)
	if !ok {
		return
	}

	var sb strings.Builder
	if err := converter.DumpEvents(&sb, result.Track); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, sb.String())
}

// remapUpload reads the uploaded file and query options and runs the remap. It
// writes the error response itself and reports ok=false on failure.
func (s *server) remapUpload(c *gin.Context) (string, *converter.RemapResult, bool) {
	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	if err := converter.CheckInputPath(header.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}

	cfg, err := queryConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}

	// Read file content
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", nil, false
	}
	if len(data) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", maxUploadSize)})
		return "", nil, false
	}

	result, err := converter.New(s.logger).Remap(data, cfg)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return "", nil, false
	}
	return header.Filename, result, true
}

// queryConfig builds the remap config from the query string
func queryConfig(c *gin.Context) (remap.Config, error) {
	var opts config.Options
	intParam := func(name string) (*int, error) {
		v, ok := c.GetQuery(name)
		if !ok {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", config.ErrUsage, name, v)
		}
		return &n, nil
	}

	var err error
	if opts.Track, err = intParam("track"); err != nil {
		return remap.Config{}, err
	}
	if opts.BlankBeats, err = intParam("blank"); err != nil {
		return remap.Config{}, err
	}
	src, err := intParam("tempo_src")
	if err != nil {
		return remap.Config{}, err
	}
	tar, err := intParam("tempo_tar")
	if err != nil {
		return remap.Config{}, err
	}
	switch {
	case src != nil && tar != nil:
		opts.TempoFix = []int{*src, *tar}
	case src != nil || tar != nil:
		return remap.Config{}, fmt.Errorf("%w: tempo_src and tempo_tar must be given together", config.ErrUsage)
	}
	return opts.RemapConfig()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, converter.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, remap.ErrUnsupportedShape), errors.Is(err, remap.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
