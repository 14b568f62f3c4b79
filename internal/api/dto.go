package api

import (
	"github.com/starford/asterism/internal/catalog"
	"github.com/starford/asterism/internal/models"
)

// ConstellationListResponse wraps the catalog listing.
type ConstellationListResponse struct {
	Constellations []catalog.Summary `json:"constellations"`
	Total          int               `json:"total"`
}

// ConvertResponse is the result of a dry-run conversion.
type ConvertResponse struct {
	Records        int                    `json:"records"`
	Points         int                    `json:"points"`
	Edges          int                    `json:"edges"`
	SkippedPairs   int                    `json:"skipped_pairs"`
	SourceChecksum string                 `json:"source_checksum"`
	Output         string                 `json:"output"`
	Constellations []models.Constellation `json:"constellations"`
}
