package webmap

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/rotisserie/eris"
)

// RenderPage renders the Leaflet map page for a model. The model is
// embedded as JSON and drawn client-side; basemap tiles come through
// the tile proxy so the API key never reaches the browser.
func RenderPage(m *MapModel) (string, error) {
	modelJSON, err := json.Marshal(m)
	if err != nil {
		return "", eris.Wrap(err, "webmap: marshal map model")
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, template.JS(modelJSON)); err != nil {
		return "", eris.Wrap(err, "webmap: render map page")
	}
	return buf.String(), nil
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>CRISP</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.legend { background: white; border: 2px solid grey; padding: 10px; font-size: 14px; opacity: 0.85; }
.legend .swatch { display: inline-block; width: 14px; height: 14px; vertical-align: middle; margin-right: 6px; }
.legend .line { display: inline-block; width: 30px; height: 2px; vertical-align: middle; margin-right: 6px; }
.custom-cluster div { background-color: #1C56F6; color: white; border-radius: 50%; width: 40px; height: 40px; display: flex; align-items: center; justify-content: center; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var model = {{.}};

var map = L.map('map', { maxZoom: model.max_zoom })
	.setView([model.center_lat, model.center_lon], model.zoom);

var road = L.tileLayer('/tiles/road/{z}/{x}/{y}.png', {
	attribution: '&copy; <a href="http://www.ordnancesurvey.co.uk/">Ordnance Survey</a>',
	maxZoom: model.max_zoom
}).addTo(map);
var light = L.tileLayer('/tiles/light/{z}/{x}/{y}.png', {
	attribution: '&copy; <a href="http://www.ordnancesurvey.co.uk/">Ordnance Survey</a>',
	maxZoom: model.max_zoom
});
L.control.layers({ 'OS Road Map': road, 'OS Light Map': light }).addTo(map);

if (model.bounds) {
	map.fitBounds([[model.bounds[1], model.bounds[0]], [model.bounds[3], model.bounds[2]]]);
}

if (model.marker) {
	L.marker([model.marker.lat, model.marker.lon]).bindPopup(model.marker.popup).addTo(map);
}

(model.overlays || []).forEach(function (overlay) {
	var style = overlay.style;
	var target = map;
	if (style.cluster) {
		target = L.markerClusterGroup({
			iconCreateFunction: function (cluster) {
				return L.divIcon({
					html: '<div><span>' + cluster.getChildCount() + '</span></div>',
					className: 'custom-cluster',
					iconSize: [40, 40]
				});
			}
		});
		target.addTo(map);
	}
	L.geoJSON(overlay.geojson, {
		style: function () {
			return { color: style.stroke, fillColor: style.fill, weight: style.weight, fillOpacity: style.fill_opacity };
		},
		pointToLayer: function (feature, latlng) {
			return L.circleMarker(latlng, {
				radius: style.point_radius || 4,
				color: style.stroke,
				fillColor: style.fill,
				fillOpacity: style.fill_opacity,
				weight: style.weight
			});
		},
		onEachFeature: function (feature, layer) {
			if (feature.properties && feature.properties.tooltip) {
				layer.bindTooltip(feature.properties.tooltip);
			}
		}
	}).addTo(target);
});

if (model.buffer) {
	L.circle([model.buffer.lat, model.buffer.lon], {
		radius: model.buffer.radius_meters,
		color: model.buffer.color,
		fill: false
	}).bindPopup('Buffer: ' + model.buffer.radius_meters + 'm').addTo(map);
}

if (model.legend && model.legend.length) {
	var legend = L.control({ position: 'bottomleft' });
	legend.onAdd = function () {
		var div = L.DomUtil.create('div', 'legend');
		var html = '<b>Features</b><br>';
		model.legend.forEach(function (entry) {
			var cls = entry.line ? 'line' : 'swatch';
			html += '<span class="' + cls + '" style="background-color:' + entry.color + '"></span>' + entry.name + '<br>';
		});
		div.innerHTML = html;
		return div;
	};
	legend.addTo(map);
}
</script>
</body>
</html>
`))
