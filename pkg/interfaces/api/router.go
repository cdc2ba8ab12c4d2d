package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/application/services/projection"
)

const correlationHeader = "X-Correlation-Id"

// ViewProvider returns the stock view of the current snapshot
type ViewProvider interface {
	View(ctx context.Context) (*projection.View, error)
}

// Handler serves the read-only stock API
type Handler struct {
	stock  ViewProvider
	policy string
	logger *logrus.Logger
}

// NewRouter wires the stock routes. policy is reported by exports.
func NewRouter(stock ViewProvider, policy string, logger *logrus.Logger) *gin.Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	h := &Handler{stock: stock, policy: policy, logger: logger}

	r := gin.New()
	r.Use(correlationID())
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	group := r.Group("/stock")
	group.GET("", h.lines)
	group.GET("/locations/:id", h.byLocation)
	group.GET("/products/:id", h.byProduct)
	group.GET("/low", h.lowStock)
	group.GET("/value", h.totalValue)
	group.GET("/negative", h.negative)
	group.GET("/diagnostics", h.diagnostics)
	group.GET("/loadings", h.loadings)
	group.GET("/export.xlsx", h.exportXLSX)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(correlationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set("correlation_id", cid)
		c.Header(correlationHeader, cid)
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"status":         c.Writer.Status(),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"latency":        time.Since(start).String(),
			"correlation_id": c.GetString("correlation_id"),
		}).Info("request")
	}
}
