// Package api provides the REST API server for mpeparse
package api

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/mpeparse/pkg/converter"
	"github.com/james-see/mpeparse/pkg/mpe"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MPE Parse API
// @version 1.0
// @description API for decoding MIDI messages into MPE note-expression events
// @host localhost:8080
// @BasePath /api/v1

// maxUpload bounds uploaded MIDI files
const maxUpload = 8 << 20

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return NewRouter().Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the API routes
func NewRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/constants", listConstants)
		v1.GET("/formats", listFormats)
		v1.POST("/decode", handleDecode)
		v1.POST("/convert/midi2events", handleMIDIToEvents)
		v1.POST("/convert/events2midi", handleEventsToMIDI)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
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
		"service": "mpeparse",
	})
}

// listConstants godoc
// @Summary Decoder constants
// @Description Returns the fixed MPE slide controller and pitch bend range
// @Tags info
// @Produce json
// @Success 200 {object} map[string]number
// @Router /api/v1/constants [get]
func listConstants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"slideController": mpe.SlideController,
		"bendRange":       mpe.BendRange,
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"midi", "events"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// DecodeRequest lists messages to decode, as hex strings ("913C64" or
// "91 3C 64") and/or packed integers.
type DecodeRequest struct {
	Messages []string `json:"messages"`
	Packed   []uint32 `json:"packed"`
}

// DecodeResponse holds the decoded events in request order. Messages with
// no expression event are counted in Dropped.
type DecodeResponse struct {
	Events  []mpe.Event `json:"events"`
	Dropped int         `json:"dropped"`
}

// handleDecode godoc
// @Summary Decode MIDI messages
// @Description Decode short MIDI messages into MPE note-expression events
// @Tags decode
// @Accept json
// @Produce json
// @Param request body DecodeRequest true "Messages to decode"
// @Success 200 {object} DecodeResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/decode [post]
func handleDecode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	msgs := make([]mpe.Message, 0, len(req.Messages)+len(req.Packed))
	for i, s := range req.Messages {
		m, err := ParseHexMessage(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("message %d: %v", i, err)})
			return
		}
		msgs = append(msgs, m)
	}
	for i, p := range req.Packed {
		if p > 0xFFFFFF {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("packed %d: value %d exceeds three bytes", i, p)})
			return
		}
		msgs = append(msgs, mpe.Message(p))
	}

	events := mpe.ParseAll(msgs)
	c.JSON(http.StatusOK, DecodeResponse{
		Events:  events,
		Dropped: len(msgs) - len(events),
	})
}

// ParseHexMessage parses one to three hex-encoded bytes, with optional
// spaces between them
func ParseHexMessage(s string) (mpe.Message, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	m, ok := mpe.FromBytes(raw)
	if !ok {
		return 0, fmt.Errorf("%q: want 1 to 3 bytes, got %d", s, len(raw))
	}
	return m, nil
}

// handleMIDIToEvents godoc
// @Summary Decode a MIDI file
// @Description Upload a MIDI file and receive its expression event timeline
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to decode"
// @Success 200 {object} converter.Timeline
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/midi2events [post]
func handleMIDIToEvents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	if len(data) > maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	tl, err := converter.New().Decode(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tl.Name = header.Filename
	c.JSON(http.StatusOK, tl)
}

// handleEventsToMIDI godoc
// @Summary Render events to MIDI
// @Description Post an expression event timeline and receive a MIDI file
// @Tags convert
// @Accept json
// @Produce audio/midi
// @Param timeline body converter.Timeline true "Timeline to render"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/events2midi [post]
func handleEventsToMIDI(c *gin.Context) {
	var tl converter.Timeline
	if err := c.ShouldBindJSON(&tl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid timeline: %v", err)})
		return
	}

	result, err := converter.New().MIDI().GenerateMIDI(&tl)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outputName := "events.mid"
	if tl.Name != "" {
		outputName = strings.TrimSuffix(tl.Name, ".json") + ".mid"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Data(http.StatusOK, "audio/midi", result)
}
