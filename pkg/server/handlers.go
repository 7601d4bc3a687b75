package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/etulastrada/ideconfy/pkg/buildinfo"
	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/pipeline"
	"github.com/etulastrada/ideconfy/pkg/placement"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"canvases": s.canvases.Len(),
	})
}

// =============================================================================
// Identicons
// =============================================================================

type identiconResponse struct {
	identicon.Identicon
	Size int `json:"size"`
}

func (s *Server) handleIdenticon(w http.ResponseWriter, r *http.Request) {
	content, err := pathParam(r, "content")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if size == 0 {
		size = s.cfg.Render.Size
	}
	id, hit, err := s.runner.Identicon(r.Context(), content, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, identiconResponse{Identicon: id, Size: id.Size()})
}

func (s *Server) handleIdenticonArtifact(w http.ResponseWriter, r *http.Request) {
	content, err := pathParam(r, "content")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Content: content,
		Formats: []string{string(format)},
		Logger:  s.logger,
	}
	if opts.Size, err = queryInt(r, "size"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Scale, err = queryFloat(r, "scale"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Width, err = queryInt(r, "width"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Height, err = queryInt(r, "height"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Size == 0 {
		opts.Size = s.cfg.Render.Size
	}
	if opts.Scale == 0 {
		opts.Scale = s.cfg.Render.Scale
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := res.Artifacts[string(format)]
	if data == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "nothing to render"))
		return
	}

	cacheState := "MISS"
	if res.CacheHit {
		cacheState = "HIT"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("ETag", `"`+string(res.Identicon.Digest[:16])+`"`)
	w.Header().Set("X-Cache", cacheState)
	if format.IsRaster() {
		w.Header().Set("Content-Disposition",
			`inline; filename="`+errors.SanitizeFilename(content)+format.Ext()+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Canvases
// =============================================================================

type canvasResponse struct {
	ID       string           `json:"id"`
	Config   canvas.Config    `json:"config"`
	Placed   int              `json:"placed"`
	Items    []canvas.Item    `json:"items"`
	Overlaps []canvas.Overlap `json:"overlaps,omitempty"`
}

func newCanvasResponse(id string, c *canvas.Canvas) canvasResponse {
	items := c.Items()
	if items == nil {
		items = []canvas.Item{}
	}
	return canvasResponse{
		ID:       id,
		Config:   c.Config(),
		Placed:   c.Len(),
		Items:    items,
		Overlaps: c.Overlaps(),
	}
}

func (s *Server) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	id, c, err := s.canvases.Create()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/canvases/"+id)
	writeJSON(w, http.StatusCreated, newCanvasResponse(id, c))
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCanvasResponse(id, c))
}

func (s *Server) handleCanvasSVG(w http.ResponseWriter, r *http.Request) {
	id, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", render.FormatSVG.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Snapshot(render.WithTitle("canvas " + id)))
}

type craftRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCraft(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	var req craftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	it, err := c.Craft(req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// commitRequest is a released drag. The drop point is optional but must
// be given as a pair.
type commitRequest struct {
	DropX *float64 `json:"drop_x"`
	DropY *float64 `json:"drop_y"`
	DX    float64  `json:"dx"`
	DY    float64  `json:"dy"`
}

func (req commitRequest) gesture() (canvas.Gesture, error) {
	g := canvas.Gesture{DX: req.DX, DY: req.DY}
	switch {
	case req.DropX != nil && req.DropY != nil:
		g.Drop = &placement.Position{X: *req.DropX, Y: *req.DropY}
	case req.DropX != nil || req.DropY != nil:
		return g, errors.New(errors.ErrCodeInvalidInput, "drop_x and drop_y must be given together")
	}
	return g, nil
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	var req commitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := req.gesture()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := c.Commit(r.Context(), chi.URLParam(r, "item"), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type relocateRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	var req relocateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "x and y are required"))
		return
	}
	out, err := c.Relocate(r.Context(), chi.URLParam(r, "item"), placement.Position{X: *req.X, Y: *req.Y})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.canvas(w, r)
	if !ok {
		return
	}
	out, err := c.Remove(r.Context(), chi.URLParam(r, "item"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// canvas resolves the {id} parameter, writing a 404 when it is unknown.
func (s *Server) canvas(w http.ResponseWriter, r *http.Request) (string, *canvas.Canvas, bool) {
	id := chi.URLParam(r, "id")
	c, err := s.canvases.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return "", nil, false
	}
	return id, c, true
}
