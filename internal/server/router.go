// Package server exposes meter reports over HTTP.
package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/runnerr0/meterreport/internal/engine"
	"github.com/runnerr0/meterreport/internal/meter"
)

// Router wires HTTP handlers over one loaded dataset. The dataset is never
// modified, so handlers share it without locking.
type Router struct {
	dataset meter.Dataset
	opts    []engine.Option
	origins string
}

// FiltersResponse lists what a client can filter on.
type FiltersResponse struct {
	Records       int            `json:"records"`
	Diameters     []int          `json:"diameters"`
	MinAge        meter.Optional `json:"min_age"`
	MaxAge        meter.Optional `json:"max_age"`
	ReferenceTime time.Time      `json:"reference_time"`
}

// NewRouter builds the gin engine serving reports over ds. allowedOrigins is
// a comma-separated list, or "*".
func NewRouter(ds meter.Dataset, opts []engine.Option, allowedOrigins string) *gin.Engine {
	r := &Router{
		dataset: ds,
		opts:    opts,
		origins: allowedOrigins,
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), r.corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "records": r.dataset.Len()})
	})

	api := router.Group("/api")
	{
		api.GET("/filters", r.getFilters)
		api.GET("/report", r.getReport)
		api.GET("/meters/export", r.exportMeters)
	}

	return router
}

func (r *Router) corsMiddleware() gin.HandlerFunc {
	origins := strings.Split(r.origins, ",")
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if t := strings.TrimSpace(o); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := ""
		for _, o := range trimmed {
			if o == "*" {
				allowed = "*"
				break
			}
			if o == origin {
				allowed = origin
				break
			}
		}
		if allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *Router) getFilters(c *gin.Context) {
	lo, hi := r.dataset.AgeBounds()
	c.JSON(http.StatusOK, FiltersResponse{
		Records:       r.dataset.Len(),
		Diameters:     r.dataset.Diameters(),
		MinAge:        lo,
		MaxAge:        hi,
		ReferenceTime: r.dataset.ReferenceTime(),
	})
}

func (r *Router) getReport(c *gin.Context) {
	criteria, ok := r.criteria(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.BuildReport(r.dataset, criteria, r.opts...))
}

// exportMeters streams the selected records as CSV in dataset order.
func (r *Router) exportMeters(c *gin.Context) {
	criteria, ok := r.criteria(c)
	if !ok {
		return
	}

	records := r.dataset.Records()
	if criteria != nil {
		records = engine.Filter(records, criteria.Matches)
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=meters.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{"meter_id", "diameter_mm", "connection_status", "install_date", "age_years", "reading_group", "property_profile"}
	if err := writer.Write(header); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	for _, rec := range records {
		installed, age := "", ""
		if rec.HasInstallDate() {
			installed = rec.InstallDate.Format("2006-01-02")
		}
		if rec.AgeYears.Valid {
			age = strconv.FormatFloat(rec.AgeYears.Value, 'f', -1, 64)
		}
		row := []string{
			rec.MeterID,
			strconv.Itoa(rec.DiameterMM),
			rec.ConnectionStatus,
			installed,
			age,
			rec.ReadingGroup,
			rec.PropertyProfile,
		}
		if err := writer.Write(row); err != nil {
			return
		}
	}
}

// criteria parses the filter query parameters. On failure it writes a 400
// response and returns ok=false. A request without filter parameters yields
// nil criteria, the unfiltered dataset.
func (r *Router) criteria(c *gin.Context) (*engine.Criteria, bool) {
	sel, err := parseSelection(c)
	if err == nil {
		var criteria *engine.Criteria
		criteria, err = sel.Resolve(r.dataset)
		if err == nil {
			return criteria, true
		}
	}

	status := http.StatusBadRequest
	if !errors.Is(err, engine.ErrInvalidCriteria) && !errors.Is(err, errBadParam) {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
	return nil, false
}

var errBadParam = errors.New("bad query parameter")

func parseSelection(c *gin.Context) (engine.Selection, error) {
	var sel engine.Selection

	for _, raw := range c.QueryArray("diameter") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.Atoi(part)
			if err != nil {
				return sel, fmt.Errorf("%w: diameter %q is not an integer", errBadParam, part)
			}
			sel.Diameters = append(sel.Diameters, d)
		}
	}

	var err error
	if sel.MinDiameter, err = intParam(c, "min_diameter"); err != nil {
		return sel, err
	}
	if sel.MaxDiameter, err = intParam(c, "max_diameter"); err != nil {
		return sel, err
	}
	if sel.MinAge, err = floatParam(c, "min_age"); err != nil {
		return sel, err
	}
	if sel.MaxAge, err = floatParam(c, "max_age"); err != nil {
		return sel, err
	}
	return sel, nil
}

func intParam(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not an integer", errBadParam, name, raw)
	}
	return &v, nil
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", errBadParam, name, raw)
	}
	return &v, nil
}
