// Package webmap builds the dashboard map: a styled layer model over
// the fetched feature tables, a Leaflet page rendering it, and a proxy
// for the basemap raster tiles.
package webmap

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/crisp-geo/crisp/internal/buffer"
	"github.com/crisp-geo/crisp/internal/geodata"
	"github.com/crisp-geo/crisp/internal/insight"
)

// Default viewport when nothing has been geocoded yet.
const (
	DefaultCenterLat = 52.4814
	DefaultCenterLon = -1.8998
	DefaultZoom      = 14
	MatchZoom        = 16
	MaxZoom          = 19
)

// LayerStyle is the fixed cartographic style of one overlay.
type LayerStyle struct {
	Name        string  `json:"name"`
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fill_opacity"`
	PointRadius float64 `json:"point_radius,omitempty"`
	Cluster     bool    `json:"cluster,omitempty"`
}

// layerStyles fixes the style of each overlay; the palette is part of
// the product, not configuration.
var layerStyles = map[geodata.Source]LayerStyle{
	geodata.SourceLandUse:      {Name: "Land Use", Stroke: "#f3f2f2", Fill: "#FADADD", Weight: 1, FillOpacity: 1.0},
	geodata.SourceGreenspace:   {Name: "Greenspace", Stroke: "#f3f2f2", Fill: "#cee967", Weight: 1, FillOpacity: 1.0},
	geodata.SourceBuildings:    {Name: "Buildings", Stroke: "#f3f2f2", Fill: "#a39f9c", Weight: 1, FillOpacity: 1.0},
	geodata.SourceStreetLights: {Name: "Street Lights", Stroke: "#000000", Fill: "#ffbe0a", Weight: 1, FillOpacity: 0.6, PointRadius: 4},
	geodata.SourceCrime:        {Name: "Crime", Stroke: "#1C56F6", Fill: "#1C56F6", Weight: 0.5, FillOpacity: 1.0, PointRadius: 6, Cluster: true},
}

// bufferColor outlines the search radius and its legend entry.
const bufferColor = "#1C56F6"

// tooltipAttr names the attribute shown when hovering a feature.
var tooltipAttr = map[geodata.Source]string{
	geodata.SourceLandUse:      "DESCRIPTION",
	geodata.SourceBuildings:    "DESCRIPTION",
	geodata.SourceStreetLights: "DESCRIPTION",
	geodata.SourceGreenspace:   "FUNCTION",
}

// Overlay is one styled GeoJSON layer ready for the map.
type Overlay struct {
	Source  geodata.Source  `json:"source"`
	Style   LayerStyle      `json:"style"`
	GeoJSON json.RawMessage `json:"geojson"`
}

// LegendEntry is one row of the map legend. Line entries render as a
// stroke swatch instead of a filled one.
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Line  bool   `json:"line,omitempty"`
}

// Marker is the geocoded address pin.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// BufferRing draws the search radius outline.
type BufferRing struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radius_meters"`
	Color        string  `json:"color"`
}

// MapModel is everything the Leaflet page needs to draw one state of
// the dashboard map.
type MapModel struct {
	CenterLat float64       `json:"center_lat"`
	CenterLon float64       `json:"center_lon"`
	Zoom      int           `json:"zoom"`
	MaxZoom   int           `json:"max_zoom"`
	Bounds    *[4]float64   `json:"bounds,omitempty"` // minLon, minLat, maxLon, maxLat
	Marker    *Marker       `json:"marker,omitempty"`
	Buffer    *BufferRing   `json:"buffer,omitempty"`
	Overlays  []Overlay     `json:"overlays"`
	Legend    []LegendEntry `json:"legend"`
}

// DefaultModel is the map before any address has been geocoded.
func DefaultModel() *MapModel {
	return &MapModel{
		CenterLat: DefaultCenterLat,
		CenterLon: DefaultCenterLon,
		Zoom:      DefaultZoom,
		MaxZoom:   MaxZoom,
	}
}

// BuildModel assembles the map for a completed pipeline run. Overlays
// appear in draw order (polygons under points) and only for the layers
// the request selected; the legend mirrors the overlays plus the
// buffer outline.
func BuildModel(res *insight.Result, buf *buffer.Buffer, address string) (*MapModel, error) {
	m := &MapModel{
		CenterLat: res.Request.Lat,
		CenterLon: res.Request.Lon,
		Zoom:      MatchZoom,
		MaxZoom:   MaxZoom,
		Marker:    &Marker{Lat: res.Request.Lat, Lon: res.Request.Lon, Popup: address},
	}

	if buf != nil {
		minLon, minLat, maxLon, maxLat := buf.Bounds()
		m.Bounds = &[4]float64{minLon, minLat, maxLon, maxLat}
		m.Buffer = &BufferRing{
			Lat:          buf.Lat,
			Lon:          buf.Lon,
			RadiusMeters: buf.RadiusMeters,
			Color:        bufferColor,
		}
	}

	for _, src := range geodata.LayerSources {
		if !res.Request.HasLayer(src) {
			continue
		}
		table, ok := res.Layers[src]
		if !ok {
			continue
		}

		var raw json.RawMessage
		var err error
		if src == geodata.SourceCrime {
			raw, err = crimeCollection(res.MapEvents(), table)
		} else {
			raw, err = featureCollection(table, tooltipAttr[src])
		}
		if err != nil {
			return nil, eris.Wrapf(err, "webmap: encode %s overlay", src)
		}

		style := layerStyles[src]
		m.Overlays = append(m.Overlays, Overlay{Source: src, Style: style, GeoJSON: raw})
		m.Legend = append(m.Legend, LegendEntry{Name: style.Name, Color: style.Fill})
	}

	if m.Buffer != nil {
		m.Legend = append(m.Legend, LegendEntry{Name: "Buffer", Color: bufferColor, Line: true})
	}

	return m, nil
}

// featureCollection encodes a feature table as GeoJSON, carrying the
// tooltip attribute through as a feature property.
func featureCollection(table *geodata.FeatureTable, attr string) (json.RawMessage, error) {
	fc := geojson.FeatureCollection{}
	for _, f := range table.Features {
		props := map[string]interface{}{}
		if attr != "" {
			if v, ok := f.AttrString(attr); ok {
				props["tooltip"] = v
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   f.Geom,
			Properties: props,
		})
	}
	return json.Marshal(&fc)
}

// crimeCollection encodes the crime overlay from the event set the map
// should show, joining back to the fetched table for geometry. The
// tooltip carries "type — date".
func crimeCollection(events []insight.Event, table *geodata.FeatureTable) (json.RawMessage, error) {
	// The event set is derived from the table rows one-to-one when
	// unfiltered; when filtered, match rows back by cell and type.
	wanted := make(map[string]int)
	for _, e := range events {
		wanted[e.Cell+"|"+e.Type]++
	}

	fc := geojson.FeatureCollection{}
	for _, f := range table.Features {
		typ, _ := f.AttrString("CRIME_TYPE")
		cell, _ := f.AttrString("H3_11")
		key := cell + "|" + typ
		if wanted[key] == 0 {
			continue
		}
		wanted[key]--

		props := map[string]interface{}{}
		if date, ok := f.AttrTime("RANDOM_DATE"); ok {
			props["tooltip"] = fmt.Sprintf("%s — %s", typ, date.Format("2006-01-02"))
		} else {
			props["tooltip"] = typ
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   f.Geom,
			Properties: props,
		})
	}
	return json.Marshal(&fc)
}
