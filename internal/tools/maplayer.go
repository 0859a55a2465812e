package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/anhp95/lang/internal/schema"
)

type geoFeature struct {
	Type       string         `json:"type"`
	Geometry   geoGeometry    `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type geoCollection struct {
	Type     string       `json:"type"`
	Features []geoFeature `json:"features"`
}

// toMapLayer converts the best available table into a GeoJSON point
// collection. Rows without usable coordinates are skipped; noise points of
// a clustered table are included only when configured to be.
func toMapLayer(ctx context.Context, in Input) (*Result, error) {
	t := in.Table

	latIdx := t.ColumnIndex("Latitude")
	lonIdx := t.ColumnIndex("Longitude")
	if latIdx < 0 || lonIdx < 0 {
		return &Result{Tool: "to_map_layer", Failure: "missing Latitude or Longitude column"}, nil
	}

	includeNoise := in.IncludeNoise
	if v, ok := paramBool(in.Params, "include_noise"); ok {
		includeNoise = v
	}
	clusterIdx := t.ColumnIndex(schema.ClusterIDColumn)

	features := make([]geoFeature, 0, t.RowCount())
	skipped, noiseDropped := 0, 0
	for i := range t.Rows {
		lat, okLat := schema.CleanCoordinate(t.Cell(i, latIdx))
		lon, okLon := schema.CleanCoordinate(t.Cell(i, lonIdx))
		if !okLat || !okLon {
			skipped++
			continue
		}

		if clusterIdx >= 0 && !includeNoise {
			if id, err := strconv.Atoi(t.Cell(i, clusterIdx)); err == nil && id == schema.NoiseLabel {
				noiseDropped++
				continue
			}
		}

		props := make(map[string]any, len(t.Columns)-2)
		for j, col := range t.Columns {
			if j == latIdx || j == lonIdx {
				continue
			}
			props[col] = typedCell(t.Cell(i, j))
		}

		features = append(features, geoFeature{
			Type: "Feature",
			Geometry: geoGeometry{
				Type:        "Point",
				Coordinates: [2]float64{lon, lat},
			},
			Properties: props,
		})
	}

	if len(features) == 0 {
		return &Result{Tool: "to_map_layer", Failure: "no rows with usable coordinates"}, nil
	}

	payload, err := json.Marshal(geoCollection{Type: "FeatureCollection", Features: features})
	if err != nil {
		return nil, fmt.Errorf("encoding GeoJSON: %w", err)
	}

	return &Result{
		Tool:    "to_map_layer",
		GeoJSON: payload,
		Summary: map[string]any{
			"point_count":   len(features),
			"skipped":       skipped,
			"noise_dropped": noiseDropped,
		},
		Notes: fmt.Sprintf("Map layer with %d points", len(features)),
	}, nil
}

// typedCell decodes a cell into the narrowest JSON type that round-trips.
func typedCell(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
