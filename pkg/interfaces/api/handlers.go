package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/stockrecon/pkg/application/dto"
	"github.com/fieldops/stockrecon/pkg/application/services"
	"github.com/fieldops/stockrecon/pkg/application/services/consistency"
	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
	domainservices "github.com/fieldops/stockrecon/pkg/domain/services"
	"github.com/fieldops/stockrecon/pkg/infrastructure/logging"
	"github.com/fieldops/stockrecon/pkg/interfaces/cli/output"
)

const dateLayout = "2006-01-02"

// view acquires one view per request and writes the error response on failure
func (h *Handler) view(c *gin.Context) (*projection.View, bool) {
	view, err := h.stock.View(c.Request.Context())
	if err != nil {
		h.fail(c, "view", err)
		return nil, false
	}
	return view, true
}

// fail maps an error to a status code and logs server-side failures
func (h *Handler) fail(c *gin.Context, funcName string, err error) {
	var validationErr *domainservices.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid snapshot", "issues": validationErr.Issues})
	case errors.Is(err, repositories.ErrLocationNotFound), errors.Is(err, repositories.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoSnapshotSource):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logging.LogError(h.logger, "api", funcName, c.Request.Method+" "+c.Request.URL.Path, c.GetString("correlation_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reconcile stock"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// filter reads kind, location, product, nonzero and low from the query
func filter(c *gin.Context) (projection.Filter, error) {
	f := projection.Filter{
		LocationID: entities.LocationID(c.Query("location")),
		ProductID:  entities.ProductID(c.Query("product")),
	}
	if kind := c.Query("kind"); kind != "" {
		parsed, err := entities.ParseLocationKind(kind)
		if err != nil {
			return f, err
		}
		f.Kind = parsed
	}
	var err error
	if f.NonZeroOnly, err = boolQuery(c, "nonzero"); err != nil {
		return f, err
	}
	if f.LowOnly, err = boolQuery(c, "low"); err != nil {
		return f, err
	}
	return f, nil
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

func dateQuery(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", key, v)
	}
	return t, nil
}

func (h *Handler) lines(c *gin.Context) {
	f, err := filter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": view.Revision(), "lines": view.Lines(f)})
}

func (h *Handler) byLocation(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	stock, err := view.ByLocation(entities.LocationID(c.Param("id")))
	if err != nil {
		h.fail(c, "byLocation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location_id": c.Param("id"), "products": stock})
}

func (h *Handler) byProduct(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	locations, err := view.ByProduct(entities.ProductID(c.Param("id")))
	if err != nil {
		h.fail(c, "byProduct", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id"), "locations": locations})
}

func (h *Handler) lowStock(c *gin.Context) {
	var threshold *entities.Quantity
	if v := c.Query("threshold"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid threshold %q", v))
			return
		}
		q := entities.Quantity(n)
		threshold = &q
	}

	view, ok := h.view(c)
	if !ok {
		return
	}
	if threshold == nil {
		t := view.LowStockThreshold()
		threshold = &t
	}
	c.JSON(http.StatusOK, gin.H{"threshold": *threshold, "lines": view.LowStock(*threshold)})
}

func (h *Handler) totalValue(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	location := entities.LocationID(c.Query("location"))
	value, err := view.TotalValue(location)
	if err != nil {
		h.fail(c, "totalValue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location_id": location, "value": value})
}

func (h *Handler) negative(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"negative_stock": consistency.NegativeStockReport(view.Result().Quantities)})
}

func (h *Handler) diagnostics(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": view.Revision(), "diagnostics": view.Diagnostics()})
}

func (h *Handler) loadings(c *gin.Context) {
	from, err := dateQuery(c, "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		badRequest(c, err)
		return
	}

	view, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"loadings": view.VehicleLoadings(dto.LoadingFilter{
		From:      from,
		To:        to,
		SourceID:  entities.LocationID(c.Query("source")),
		VehicleID: entities.LocationID(c.Query("vehicle")),
	})})
}

func (h *Handler) exportXLSX(c *gin.Context) {
	f, err := filter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	view, ok := h.view(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+output.XLSXFile)
	if err := output.WriteXLSX(c.Writer, output.NewReport(view, f, h.policy)); err != nil {
		logging.LogError(h.logger, "api", "exportXLSX", "GET /stock/export.xlsx", nil, err)
		c.Status(http.StatusInternalServerError)
	}
}
