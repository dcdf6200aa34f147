package handler

import (
	"context"
	"net/http"
	"strconv"

	"core/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MetaCatalog is the catalog surface backing the metadata endpoints.
type MetaCatalog interface {
	Companies(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context) (int, int, error)
	CameraRange(ctx context.Context) (int, int, error)
	BatteryRange(ctx context.Context) (int, int, error)
	FilteredPhones(ctx context.Context, filters *model.FilterSet) ([]string, error)
	PhoneData(ctx context.Context, selections []string) ([]model.Row, error)
}

// Indexer runs the name-index build job.
type Indexer interface {
	Build(ctx context.Context) (int, error)
}

// MetaHandler serves sidebar metadata, the phone picker and the index build.
type MetaHandler struct {
	catalog MetaCatalog
	indexer Indexer
	log     zerolog.Logger
}

// NewMetaHandler creates a new metadata handler.
func NewMetaHandler(catalog MetaCatalog, indexer Indexer, log zerolog.Logger) *MetaHandler {
	return &MetaHandler{
		catalog: catalog,
		indexer: indexer,
		log:     log.With().Str("component", "meta").Logger(),
	}
}

// Filters handles GET /api/v1/meta/filters
func (h *MetaHandler) Filters(c *gin.Context) {
	ctx := c.Request.Context()

	companies, err := h.catalog.Companies(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load companies: " + err.Error()})
		return
	}

	meta := model.FilterMeta{Companies: companies}
	if meta.PriceRange[0], meta.PriceRange[1], err = h.catalog.PriceRange(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price range: " + err.Error()})
		return
	}
	if meta.CameraRange[0], meta.CameraRange[1], err = h.catalog.CameraRange(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load camera range: " + err.Error()})
		return
	}
	if meta.BatteryRange[0], meta.BatteryRange[1], err = h.catalog.BatteryRange(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load battery range: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, meta)
}

// Phones handles GET /api/v1/phones - filterable "Company - Model" picker list
func (h *MetaHandler) Phones(c *gin.Context) {
	filters, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter: " + err.Error()})
		return
	}

	phones, err := h.catalog.FilteredPhones(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load phones: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"phones": phones, "count": len(phones)})
}

// Compare handles POST /api/v1/compare
func (h *MetaHandler) Compare(c *gin.Context) {
	var req model.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Selections) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No phones selected"})
		return
	}

	rows, err := h.catalog.PhoneData(c.Request.Context(), req.Selections)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load phone data: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": rows, "count": len(rows)})
}

// BuildIndex handles POST /api/v1/index/build - rebuilds the name index from
// the catalog. Runs synchronously; the build paces its embedding calls.
func (h *MetaHandler) BuildIndex(c *gin.Context) {
	count, err := h.indexer.Build(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("index build failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Index build failed: " + err.Error(), "indexed": count})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": count})
}

// filtersFromQuery parses the sidebar filters from query parameters.
func filtersFromQuery(c *gin.Context) (*model.FilterSet, error) {
	f := &model.FilterSet{}
	has := false

	if v := c.Query("company"); v != "" {
		f.Company = &v
		has = true
	}
	for param, dst := range map[string]**float64{
		"price_min":   &f.PriceMin,
		"price_max":   &f.PriceMax,
		"camera_min":  &f.CameraMin,
		"camera_max":  &f.CameraMax,
		"battery_min": &f.BatteryMin,
		"battery_max": &f.BatteryMax,
	} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		*dst = &parsed
		has = true
	}

	if !has {
		return nil, nil
	}
	return f, nil
}
