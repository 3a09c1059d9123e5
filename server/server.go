package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/gorustyt/navcore/detour"
	"github.com/gorustyt/navcore/navigation"
)

const ContentTypeMsgpack = "application/msgpack"

type PathRequest struct {
	Start mgl32.Vec3 `json:"start" msgpack:"start"`
	End   mgl32.Vec3 `json:"end" msgpack:"end"`
}

type PathResponse struct {
	Path   []mgl32.Vec3 `json:"path" msgpack:"path"`
	Found  bool         `json:"found" msgpack:"found"`
	Length int          `json:"length" msgpack:"length"`
}

type WalkableRequest struct {
	Position mgl32.Vec3 `json:"position" msgpack:"position"`
}

type WalkableResponse struct {
	Walkable bool       `json:"walkable" msgpack:"walkable"`
	Nearest  mgl32.Vec3 `json:"nearest" msgpack:"nearest"`
}

type AgentInfo struct {
	Name     string    `json:"name" msgpack:"name"`
	Height   float64   `json:"height" msgpack:"height"`
	Radius   float64   `json:"radius" msgpack:"radius"`
	MaxClimb float64   `json:"maxClimb" msgpack:"maxClimb"`
	MaxSlope float64   `json:"maxSlope" msgpack:"maxSlope"`
	BuildID  string    `json:"buildId" msgpack:"buildId"`
	Polys    int       `json:"polys" msgpack:"polys"`
	BuiltAt  time.Time `json:"builtAt" msgpack:"builtAt"`
}

type NodeInfo struct {
	Ref        uint32       `json:"ref" msgpack:"ref"`
	Center     mgl32.Vec3   `json:"center" msgpack:"center"`
	Verts      []mgl32.Vec3 `json:"verts" msgpack:"verts"`
	Neighbours []uint32     `json:"neighbours" msgpack:"neighbours"`
	Area       uint8        `json:"area" msgpack:"area"`
	Flags      uint16       `json:"flags" msgpack:"flags"`
}

// Server answers navmesh queries over HTTP for every profile of a manager.
type Server struct {
	mgr    *navigation.Manager
	logger *zap.Logger
	router *mux.Router
}

func New(mgr *navigation.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{mgr: mgr, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc("/agents", s.agentsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/nodes/{agent}", s.nodesHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/path/{agent}", s.pathHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/walkable/{agent}", s.walkableHandler).Methods(http.MethodPost)
	return s
}

// Handler returns the router wrapped with permissive CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("navmesh server listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) (navigation.AgentProfile, bool) {
	name := mux.Vars(r)["agent"]
	p, ok := s.mgr.Profile(name)
	if !ok {
		http.Error(w, "unknown agent "+name, http.StatusNotFound)
	}
	return p, ok
}

func (s *Server) agentsHandler(w http.ResponseWriter, r *http.Request) {
	res := []AgentInfo{}
	for _, p := range s.mgr.Profiles() {
		nm := s.mgr.Mesh(p)
		if nm == nil {
			continue
		}
		res = append(res, AgentInfo{
			Name:     p.Name,
			Height:   p.Height,
			Radius:   p.Radius,
			MaxClimb: p.MaxClimb,
			MaxSlope: p.MaxSlope,
			BuildID:  nm.ID.String(),
			Polys:    nm.Mesh.PolyCount(),
			BuiltAt:  nm.BuiltAt,
		})
	}
	s.write(w, r, res)
}

func (s *Server) nodesHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.profile(w, r)
	if !ok {
		return
	}
	nodes := s.mgr.GetNodes(p)
	res := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, nodeInfo(n))
	}
	s.write(w, r, res)
}

func nodeInfo(n detour.DtGraphNode) NodeInfo {
	info := NodeInfo{
		Ref:        uint32(n.Ref),
		Center:     n.Center,
		Verts:      n.Verts,
		Neighbours: make([]uint32, 0, len(n.Neighbours)),
		Area:       n.Area,
		Flags:      n.Flags,
	}
	for _, ref := range n.Neighbours {
		info.Neighbours = append(info.Neighbours, uint32(ref))
	}
	return info
}

func (s *Server) pathHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.profile(w, r)
	if !ok {
		return
	}
	var req PathRequest
	if err := s.read(r, &req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	begin := time.Now()
	path, found := s.mgr.FindPath(p, req.Start, req.End)
	s.logger.Debug("find path",
		zap.String("agent", p.Name),
		zap.Bool("found", found),
		zap.Int("points", len(path)),
		zap.Duration("cost", time.Since(begin)))
	if path == nil {
		path = []mgl32.Vec3{}
	}
	s.write(w, r, PathResponse{Path: path, Found: found, Length: len(path)})
}

func (s *Server) walkableHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.profile(w, r)
	if !ok {
		return
	}
	var req WalkableRequest
	if err := s.read(r, &req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	walkable, nearest := s.mgr.IsWalkable(p, req.Position)
	s.write(w, r, WalkableResponse{Walkable: walkable, Nearest: nearest})
}

func (s *Server) read(r *http.Request, v any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), ContentTypeMsgpack) {
		return msgpack.NewDecoder(r.Body).Decode(v)
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, v any) {
	if strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack) {
		data, err := msgpack.Marshal(v)
		if err != nil {
			s.logger.Error("encode response", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.Write(data)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}
