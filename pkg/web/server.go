package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/engine"
	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/logging"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/render"
	"github.com/ritzau/hubmap/pkg/timeline"
	"github.com/ritzau/hubmap/pkg/transform"
)

//go:embed static/*
var staticFiles embed.FS

var log = logging.New("web")

// SceneData is the JSON form of the current display list
type SceneData struct {
	Hash   string      `json:"hash"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Ops    []render.Op `json:"ops"`
}

// PointerMessage is one pointer event on the websocket stream
type PointerMessage struct {
	Type string  `json:"type"` // "down", "move" or "up"
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PointerResult reports what a pointer event did
type PointerResult struct {
	Redrawn  bool                  `json:"redrawn"`
	Dragging string                `json:"dragging,omitempty"`
	Commit   *model.PositionCommit `json:"commit,omitempty"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	engine    *engine.Engine
	loader    *engine.Loader
	publisher pubsub.Publisher
	upgrader  websocket.Upgrader
	validate  *validator.Validate
}

// NewServer creates a web server over a running engine
func NewServer(eng *engine.Engine, loader *engine.Loader, publisher pubsub.Publisher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		engine:    eng,
		loader:    loader,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		validate: validator.New(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// SSE subscription endpoint
	api.HandleFunc("/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	api.HandleFunc("/scene", s.handleScene).Methods("GET")
	api.HandleFunc("/scene.png", s.handleScenePNG).Methods("GET")
	api.HandleFunc("/viewport", s.handleViewport).Methods("POST")
	api.HandleFunc("/capability", s.handleCapability).Methods("PUT")

	api.HandleFunc("/pointer", s.handlePointerStream).Methods("GET")
	api.HandleFunc("/pointer/{kind}", s.handlePointer).Methods("POST")

	// Navigation routes must come before /track/{id}
	api.HandleFunc("/track/back", s.handleNavigate(engine.NavigateBack{})).Methods("POST")
	api.HandleFunc("/track/forward", s.handleNavigate(engine.NavigateForward{})).Methods("POST")
	api.HandleFunc("/track/{id:[0-9]+}", s.handleTrack).Methods("POST")
	api.HandleFunc("/track", s.handleCloseTracking).Methods("DELETE")
	api.HandleFunc("/tracking", s.handleTracking).Methods("GET")

	api.HandleFunc("/path", s.handleFindPath).Methods("POST")
	api.HandleFunc("/path", s.handleClearPath).Methods("DELETE")

	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
	api.HandleFunc("/routes", s.handleRoutes).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal("failed to open embedded static files", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Handler returns the router wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Start serves on port until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", "error", err)
		}
	}()

	log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

// engineError maps engine failures to a status code
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoBackend):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, engine.ErrStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicScene && topic != pubsub.TopicStatus {
		http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			log.DebugContext(r.Context(), "SSE client gone", "topic", topic, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) sceneData(ctx context.Context) (SceneData, error) {
	var data SceneData
	err := s.engine.Query(ctx, func(st *engine.State) {
		vp := st.Viewport()
		data = SceneData{Hash: st.Hash(), Width: vp.Width, Height: vp.Height, Ops: st.Scene()}
	})
	return data, err
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	data, err := s.sceneData(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleScenePNG(w http.ResponseWriter, r *http.Request) {
	data, err := s.sceneData(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}

	etag := `"` + data.Hash + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// Rasterize off the engine loop from the copied display list
	canvas, err := render.NewRasterCanvas(int(data.Width), int(data.Height))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rec := render.NewRecorder(data.Width, data.Height)
	rec.Load(data.Ops)
	if err := rec.Replay(canvas); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if err := canvas.EncodePNG(w); err != nil {
		log.WarnContext(r.Context(), "failed to encode scene", "error", err)
	}
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var vp transform.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		http.Error(w, fmt.Sprintf("Invalid viewport: %v", err), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(vp); err != nil {
		http.Error(w, fmt.Sprintf("Invalid viewport: %v", err), http.StatusBadRequest)
		return
	}

	if _, err := s.engine.Send(r.Context(), engine.Resize{Viewport: vp}); err != nil {
		engineError(w, err)
		return
	}
	data, err := s.sceneData(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleCapability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, ok := model.ParseCapability(req.Role)
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown role: %s", req.Role), http.StatusBadRequest)
		return
	}
	if _, err := s.engine.Send(r.Context(), engine.SetCapability{Capability: c}); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"role": c, "elevated": c.Elevated()})
}

func (s *Server) pointer(ctx context.Context, ev drag.Event) (PointerResult, error) {
	out, err := s.engine.Send(ctx, engine.Pointer{Event: ev})
	if err != nil {
		return PointerResult{}, err
	}
	res := PointerResult{Redrawn: out.Scene != nil, Commit: out.Commit}
	err = s.engine.Query(ctx, func(st *engine.State) {
		if n := st.Dragging(); n != nil {
			res.Dragging = n.Name
		}
	})
	return res, err
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	kind, ok := drag.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "Pointer kind must be down, move or up", http.StatusNotFound)
		return
	}
	ev := drag.Event{Kind: kind}
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, fmt.Sprintf("Invalid pointer event: %v", err), http.StatusBadRequest)
		return
	}

	res, err := s.pointer(r.Context(), ev)
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePointerStream accepts a websocket of pointer events and answers each
// with a PointerResult, in order.
func (s *Server) handlePointerStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	log.DebugContext(ctx, "pointer stream opened")
	for {
		var msg PointerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WarnContext(ctx, "pointer stream read failed", "error", err)
			}
			return
		}

		kind, ok := drag.ParseKind(msg.Type)
		if !ok {
			log.DebugContext(ctx, "ignoring pointer message", "type", msg.Type)
			continue
		}

		res, err := s.pointer(ctx, drag.Event{Kind: kind, X: msg.X, Y: msg.Y})
		if err != nil {
			log.WarnContext(ctx, "pointer event failed", "error", err)
			return
		}
		if err := conn.WriteJSON(res); err != nil {
			log.DebugContext(ctx, "pointer stream write failed", "error", err)
			return
		}
	}
}

func (s *Server) panel(ctx context.Context) (*timeline.Panel, error) {
	var panel *timeline.Panel
	err := s.engine.Query(ctx, func(st *engine.State) {
		if session := st.Session(); session != nil {
			p := session.Panel()
			panel = &p
		}
	})
	return panel, err
}

func (s *Server) writePanel(w http.ResponseWriter, r *http.Request) {
	panel, err := s.panel(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	if panel == nil {
		http.Error(w, "No tracking session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid package id", http.StatusBadRequest)
		return
	}

	out, err := s.loader.Track(r.Context(), id)
	if err != nil {
		engineError(w, err)
		return
	}
	if errors.Is(out.Err, timeline.ErrPackageNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"found": false, "id": id})
		return
	}
	if out.Err != nil {
		http.Error(w, out.Err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.writePanel(w, r)
}

func (s *Server) handleNavigate(msg engine.Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.engine.Send(r.Context(), msg); err != nil {
			engineError(w, err)
			return
		}
		s.writePanel(w, r)
	}
}

func (s *Server) handleCloseTracking(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Send(r.Context(), engine.CloseTracking{}); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	s.writePanel(w, r)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		http.Error(w, "start and end are required", http.StatusBadRequest)
		return
	}

	out, err := s.loader.FindPath(r.Context(), start, end)
	if err != nil {
		engineError(w, err)
		return
	}
	if errors.Is(out.Err, engine.ErrPathNotFound) {
		writeJSON(w, http.StatusNotFound, model.PathSnapshot{})
		return
	}

	var path model.PathSnapshot
	if err := s.engine.Query(r.Context(), func(st *engine.State) {
		if p := st.Path(); p != nil {
			path = *p
		}
	}); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleClearPath(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Send(r.Context(), engine.ClearPath{}); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.Refresh(r.Context(), "api"); err != nil {
		engineError(w, err)
		return
	}
	s.handleRoutes(w, r)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []graph.Route
	if err := s.engine.Query(r.Context(), func(st *engine.State) {
		routes = st.Store().Routes()
	}); err != nil {
		engineError(w, err)
		return
	}
	if routes == nil {
		routes = []graph.Route{}
	}
	writeJSON(w, http.StatusOK, routes)
}
