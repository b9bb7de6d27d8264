package gridweb

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/spikeview/internal/featuregrid"
	"github.com/banshee-data/spikeview/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

// WebServer handles the HTTP interface for inspecting a baked feature grid.
// It provides endpoints for health checks, a status page, chart rendering
// and raw buffer export.
type WebServer struct {
	address string
	view    *featuregrid.Controller
	server  *http.Server
	started time.Time

	// mu serialises controller access; dimension and marker handlers
	// mutate state while chart and export handlers read it.
	mu sync.Mutex
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	View    *featuregrid.Controller
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		view:    config.View,
		started: time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	// Create a shutdown context with a shorter timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/grid", ws.handleGridChart)
	mux.HandleFunc("/api/grid/buffers", ws.handleGridBuffers)
	mux.HandleFunc("/api/grid/dimensions", ws.handleGridDimensions)
	mux.HandleFunc("/api/grid/marker", ws.handleMarkerSize)

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "spikeview", "version": "%s", "timestamp": "%s"}`,
		version.Version, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	ws.mu.Lock()
	bufs := ws.view.Buffers()
	bg := ws.view.BackgroundBuffers()
	marker := ws.view.MarkerSize()
	clusterCount := ws.view.ClusterCount()
	ws.mu.Unlock()

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Template data
	data := struct {
		HTTPAddress      string
		HasData          bool
		Rows             int
		Spikes           int
		Points           int
		BackgroundSpikes int
		ClusterCount     int
		MarkerSize       float32
		BakeID           string
		BakedAt          string
		Uptime           string
	}{
		HTTPAddress:  ws.address,
		ClusterCount: clusterCount,
		MarkerSize:   marker,
		Uptime:       time.Since(ws.started).Round(time.Second).String(),
	}
	if bufs != nil {
		data.HasData = true
		data.Rows = bufs.Rows
		data.Spikes = bufs.Spikes
		data.Points = bufs.NPoints()
		data.BakeID = bufs.BakeID.String()
		data.BakedAt = bufs.BakedAt.UTC().Format(time.RFC3339)
	}
	if bg != nil {
		data.BackgroundSpikes = bg.Spikes
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}
