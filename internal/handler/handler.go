package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/dto"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/router"
	"github.com/BarkinBalci/dataset-ingestion-service/internal/service"
)

// Config bounds what clients may upload
type Config struct {
	MaxCSVBytes int64
}

type Handler struct {
	ingestionService service.IngestionServicer
	config           Config
	router           *gin.Engine
	log              *zap.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewHandler(ingestionService service.IngestionServicer, config Config, log *zap.Logger) *Handler {
	h := &Handler{
		ingestionService: ingestionService,
		config:           config,
		router:           gin.Default(),
		log:              log,
		closing:          make(chan struct{}),
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// CloseStreams ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait on them.
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() {
		close(h.closing)
	})
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/requests", h.submitRequest)
	h.router.POST("/requests/csv", h.submitCSV)
	h.router.DELETE("/requests/:requestId", h.cancelRequest)
	h.router.POST("/queue/requests", h.enqueueRequest)
	h.router.GET("/events", h.streamEvents)
	h.router.GET("/runs/stats", h.getRunStats)
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// submitRequest handles POST /requests
func (h *Handler) submitRequest(c *gin.Context) {
	var msg protocol.Message

	if err := c.ShouldBindJSON(&msg); err != nil {
		h.log.Warn("Invalid ingestion request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.ingestionService.Submit(&msg)
	if err != nil {
		h.dispatchError(c, &msg, err)
		return
	}

	h.log.Info("Ingestion request accepted",
		zap.String("request_id", msg.RequestID),
		zap.String("type", msg.Type))

	c.JSON(http.StatusAccepted, resp)
}

// submitCSV handles POST /requests/csv with a multipart file upload
func (h *Handler) submitCSV(c *gin.Context) {
	var form dto.SubmitCSVForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("Invalid CSV form", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "file is required",
		})
		return
	}

	if h.config.MaxCSVBytes > 0 && file.Size > h.config.MaxCSVBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("file exceeds %d bytes", h.config.MaxCSVBytes),
		})
		return
	}

	// Multipart temp files are removed when the request ends, so the content
	// is read now rather than by the worker.
	content, err := readUpload(file.Open)
	if err != nil {
		h.log.Error("Failed to read uploaded file", zap.Error(err), zap.String("filename", file.Filename))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	msg := protocol.Message{
		Type:      protocol.TypeParseCSVData,
		RequestID: form.RequestID,
		ChunkSize: form.ChunkSize,
		Delimiter: form.Delimiter,
		HasHeader: form.HasHeader,
	}

	open := func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	}

	resp, err := h.ingestionService.SubmitCSV(&msg, open)
	if err != nil {
		h.dispatchError(c, &msg, err)
		return
	}

	h.log.Info("CSV request accepted",
		zap.String("request_id", msg.RequestID),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size))

	c.JSON(http.StatusAccepted, resp)
}

// cancelRequest handles DELETE /requests/:requestId
func (h *Handler) cancelRequest(c *gin.Context) {
	requestID := c.Param("requestId")

	if !h.ingestionService.Cancel(requestID) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("no request %q in flight", requestID),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"requestId": requestID,
		"status":    "cancelling",
	})
}

// enqueueRequest handles POST /queue/requests
func (h *Handler) enqueueRequest(c *gin.Context) {
	var msg protocol.Message

	if err := c.ShouldBindJSON(&msg); err != nil {
		h.log.Warn("Invalid queued request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.ingestionService.Enqueue(c.Request.Context(), &msg)
	if err != nil {
		h.dispatchError(c, &msg, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// streamEvents handles GET /events as Server-Sent Events. With a requestId
// filter the stream ends after that request's terminal event.
func (h *Handler) streamEvents(c *gin.Context) {
	requestID := c.Query("requestId")

	sub := h.ingestionService.Subscribe()
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.log.Debug("Event stream opened", zap.String("request_id", requestID))

	for {
		select {
		case <-c.Request.Context().Done():
			h.log.Debug("Event stream closed by client", zap.String("request_id", requestID))
			return
		case <-h.closing:
			h.log.Debug("Event stream closed on shutdown", zap.String("request_id", requestID))
			return
		case <-sub.Done():
			h.log.Warn("Event stream evicted", zap.String("request_id", requestID))
			return
		case event := <-sub.Events():
			if requestID != "" && event.EventRequestID() != requestID {
				continue
			}

			c.SSEvent(event.EventType(), event)
			c.Writer.Flush()

			if requestID != "" && event.Terminal() {
				return
			}
		}
	}
}

// getRunStats handles GET /runs/stats
func (h *Handler) getRunStats(c *gin.Context) {
	var req dto.GetRunStatsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid run stats request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	response, err := h.ingestionService.GetRunStats(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}

		h.log.Error("Failed to get run stats",
			zap.Error(err),
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// dispatchError maps router and queue failures onto HTTP responses
func (h *Handler) dispatchError(c *gin.Context, msg *protocol.Message, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, router.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, router.ErrDuplicateRequest):
		status, code = http.StatusConflict, "duplicate_request"
	case errors.Is(err, router.ErrSchedulerBusy):
		status, code = http.StatusServiceUnavailable, "scheduler_busy"
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Failed to process ingestion request",
			zap.Error(err),
			zap.String("request_id", msg.RequestID),
			zap.String("type", msg.Type))
	} else {
		h.log.Warn("Ingestion request rejected",
			zap.Error(err),
			zap.String("request_id", msg.RequestID),
			zap.String("type", msg.Type))
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

func readUpload(open func() (multipart.File, error)) ([]byte, error) {
	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return content, nil
}
