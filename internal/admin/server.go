// Package admin serves a small HTTP control surface for a running
// simulation: a status page, the live snapshot as JSON, and endpoints to
// issue commands and spawn drones.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"dronegrid-sim/internal/sim"
)

// CommandFunc executes one operator command and returns an acknowledgement.
type CommandFunc func(text string) (string, error)

type Server struct {
	Sim     *sim.Simulator
	Command CommandFunc
	tpl     *template.Template
	mux     *http.ServeMux
}

//go:embed templates/index.html
var content embed.FS

func NewServer(simulator *sim.Simulator, command CommandFunc) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{Sim: simulator, Command: command, tpl: tpl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/drones", s.handleDrones)
	s.mux.HandleFunc("/command", s.handleCommand)
	s.mux.HandleFunc("/spawn", s.handleSpawn)
}

// Handler exposes the mux so callers can mount it or serve it from a test
// server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves the control surface until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	data := struct {
		SimID       string
		Tick        int
		Width       int
		Height      int
		Complete    bool
		Drones      int
		TargetsLeft int
	}{
		SimID:    snap.SimID,
		Tick:     snap.Tick,
		Width:    snap.Width,
		Height:   snap.Height,
		Complete: s.Sim.Complete(),
		Drones:   len(snap.Drones),
	}
	for _, t := range snap.Targets {
		if !t.Found {
			data.TargetsLeft++
		}
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sim.Snapshot())
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sim.DroneIDs())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if s.Command == nil {
		http.Error(w, "command processing disabled", http.StatusServiceUnavailable)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(string(body))
	ack, err := s.Command(text)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"result": ack})
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	id, err := s.Sim.SpawnDrone()
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"drone": id})
}
