package gridweb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/spikeview/internal/featuregrid"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleGridChart renders the baked feature grid as a page of scatter charts,
// one per box in row-major order. This is a debugging-only endpoint to
// visually inspect a bake without a GPU client.
// Query params:
//   - max_points (optional; default 8000) to reduce payload size per box
func (ws *WebServer) handleGridChart(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	bufs := ws.view.Buffers()
	bg := ws.view.BackgroundBuffers()
	matrix := ws.view.Matrix()
	constraints := ws.view.Constraints()
	colors := ws.view.Colors()
	order := ws.view.ClusterOrder()
	marker := ws.view.MarkerSize()
	ws.mu.Unlock()

	if bufs == nil || matrix == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no baked buffers available")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	rows := matrix.Rows()
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			box := matrix.BoxIndex(i, j)
			page.AddCharts(boxScatter(boxScatterInput{
				Buffers:    bufs,
				Background: bg,
				Pair:       matrix.At(i, j),
				Constraint: constraints.At(i, j),
				Box:        box,
				Colors:     colors,
				Order:      order,
				MarkerSize: marker,
				MaxPoints:  maxPoints,
			}))
		}
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type boxScatterInput struct {
	Buffers    *featuregrid.BakedBuffers
	Background *featuregrid.BakedBuffers
	Pair       featuregrid.DimensionPair
	Constraint featuregrid.BoxConstraint
	Box        int
	Colors     []color.RGBA
	Order      []int
	MarkerSize float32
	MaxPoints  int
}

// boxScatter builds one scatter chart for a single grid box: the grey
// background series first, then one series per cluster in palette order.
func boxScatter(in boxScatterInput) *charts.Scatter {
	xAxis := opts.XAxis{Name: in.Pair.X.String(), NameLocation: "middle", NameGap: 25}
	yAxis := opts.YAxis{Name: in.Pair.Y.String(), NameLocation: "middle", NameGap: 30}
	if in.Constraint.ConstrainsX() {
		xAxis.Min = in.Constraint.XMin
		xAxis.Max = in.Constraint.XMax
	}
	if in.Constraint.ConstrainsY() {
		yAxis.Min = in.Constraint.YMin
		yAxis.Max = in.Constraint.YMax
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "460px", Height: "460px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s vs %s", in.Pair.X, in.Pair.Y),
			Subtitle: fmt.Sprintf("box=%d spikes=%d", in.Box, in.Buffers.Spikes),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)

	if in.Background != nil && in.Background.Spikes > 0 {
		scatter.AddSeries("background", boxPoints(in.Background, in.Box, in.MaxPoints),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: in.MarkerSize}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	}

	for k, data := range clusterPoints(in.Buffers, in.Box, in.MaxPoints) {
		name := fmt.Sprintf("cluster %d", k)
		if k < len(in.Order) {
			name = fmt.Sprintf("cluster %d", in.Order[k])
		}
		series := []charts.SeriesOpts{
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: in.MarkerSize}),
		}
		if k < len(in.Colors) {
			series = append(series, charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(in.Colors[k])}))
		}
		scatter.AddSeries(name, data, series...)
	}

	return scatter
}

// boxPoints extracts one box's interleaved positions as chart points,
// downsampled by stride to stay within maxPoints.
func boxPoints(bufs *featuregrid.BakedBuffers, box, maxPoints int) []opts.ScatterData {
	stride := sampleStride(bufs.Spikes, maxPoints)
	start := box * bufs.Spikes
	data := make([]opts.ScatterData, 0, bufs.Spikes/stride+1)
	for s := 0; s < bufs.Spikes; s += stride {
		p := start + s
		data = append(data, opts.ScatterData{Value: []interface{}{bufs.Positions[2*p], bufs.Positions[2*p+1]}})
	}
	return data
}

// clusterPoints splits one box's points into per-cluster series using the
// baked cluster indices.
func clusterPoints(bufs *featuregrid.BakedBuffers, box, maxPoints int) [][]opts.ScatterData {
	series := make([][]opts.ScatterData, bufs.ClusterCount)
	if len(bufs.Clusters) == 0 {
		return series
	}
	stride := sampleStride(bufs.Spikes, maxPoints)
	start := box * bufs.Spikes
	for s := 0; s < bufs.Spikes; s += stride {
		p := start + s
		k := int(bufs.Clusters[p])
		if k < 0 || k >= len(series) {
			continue
		}
		series[k] = append(series[k], opts.ScatterData{Value: []interface{}{bufs.Positions[2*p], bufs.Positions[2*p+1]}})
	}
	return series
}

func sampleStride(n, maxPoints int) int {
	if n <= maxPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxPoints)))
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// gridBuffersResponse mirrors the flat GPU buffer layout as JSON.
type gridBuffersResponse struct {
	BakeID       string    `json:"bake_id"`
	BakedAt      time.Time `json:"baked_at"`
	Rows         int       `json:"rows"`
	Spikes       int       `json:"spikes"`
	Points       int       `json:"n_points"`
	ClusterCount int       `json:"cluster_count"`
	ClusterOrder []int     `json:"cluster_order,omitempty"`
	Positions    []float32 `json:"positions"`
	Masks        []float32 `json:"masks,omitempty"`
	Boxes        []float32 `json:"box_index"`
	Clusters     []float32 `json:"cluster_index,omitempty"`
}

// handleGridBuffers returns the current baked buffers as JSON.
// Query params:
//
//	layer (optional; "primary" or "background", default "primary")
func (ws *WebServer) handleGridBuffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	layer := r.URL.Query().Get("layer")
	if layer == "" {
		layer = "primary"
	}

	ws.mu.Lock()
	var bufs *featuregrid.BakedBuffers
	switch layer {
	case "primary":
		bufs = ws.view.Buffers()
	case "background":
		bufs = ws.view.BackgroundBuffers()
	default:
		ws.mu.Unlock()
		ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown layer '%s'", layer))
		return
	}
	order := ws.view.ClusterOrder()
	ws.mu.Unlock()

	if bufs == nil {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no baked buffers for layer '%s'", layer))
		return
	}

	resp := gridBuffersResponse{
		BakeID:       bufs.BakeID.String(),
		BakedAt:      bufs.BakedAt,
		Rows:         bufs.Rows,
		Spikes:       bufs.Spikes,
		Points:       bufs.NPoints(),
		ClusterCount: bufs.ClusterCount,
		Positions:    bufs.Positions,
		Masks:        bufs.Masks,
		Boxes:        bufs.Boxes,
		Clusters:     bufs.Clusters,
	}
	if layer == "primary" {
		resp.ClusterOrder = order
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleGridDimensions reports the resolved dimension matrix and accepts
// updates. POST expects a JSON body like {"dimensions": ["0:0", "1:1"]};
// the grid rebakes against the new matrix before responding. A rejected
// update leaves the previous matrix in place.
func (ws *WebServer) handleGridDimensions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req struct {
			Dimensions []string `json:"dimensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
		if len(req.Dimensions) == 0 {
			ws.writeJSONError(w, http.StatusBadRequest, "missing 'dimensions' list")
			return
		}
		dims := make([]featuregrid.Dimension, 0, len(req.Dimensions))
		for _, s := range req.Dimensions {
			d, err := featuregrid.ParseDimension(s)
			if err != nil {
				ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid dimension '%s': %v", s, err))
				return
			}
			dims = append(dims, d)
		}
		ws.mu.Lock()
		err := ws.view.SetDimensions(dims)
		ws.mu.Unlock()
		if err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("set dimensions: %v", err))
			return
		}
	default:
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ws.mu.Lock()
	matrix := ws.view.Matrix()
	ws.mu.Unlock()

	if matrix == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no dimensions resolved yet")
		return
	}

	rows := matrix.Rows()
	pairs := make([][2]string, 0, matrix.Boxes())
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			p := matrix.At(i, j)
			pairs = append(pairs, [2]string{p.X.String(), p.Y.String()})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"rows": rows, "pairs": pairs})
}

// handleMarkerSize adjusts the marker size uniform.
// Expects query param `size`; values clamp to the legal marker range.
func (ws *WebServer) handleMarkerSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sizeParam := r.URL.Query().Get("size")
	if sizeParam == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'size' parameter")
		return
	}
	v, err := strconv.ParseFloat(sizeParam, 32)
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'size' parameter: %v", err))
		return
	}

	ws.mu.Lock()
	ws.view.SetMarkerSize(float32(v))
	applied := ws.view.MarkerSize()
	ws.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float32{"marker_size": applied})
}
