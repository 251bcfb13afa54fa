package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/store"
)

// defaultSessionLimit caps GET /api/sessions without a limit parameter.
const defaultSessionLimit = 50

// SessionHandler serves /api/sessions and /api/sessions/{id}.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch len(parts) {
	case 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	ID             string                `json:"id"`
	Source         string                `json:"source"`
	StartedAt      string                `json:"started_at"`
	EndedAt        string                `json:"ended_at,omitempty"`
	Frames         int                   `json:"frames"`
	NoRegionFrames int                   `json:"no_region_frames"`
	MeanArea       float64               `json:"mean_area"`
	StdArea        float64               `json:"std_area"`
	ShapeCounts    map[gesture.Shape]int `json:"shape_counts"`
	DetectionCount int                   `json:"detection_count"`
}

type detectionResponse struct {
	Frame      int64   `json:"frame"`
	Shape      string  `json:"shape"`
	Label      string  `json:"label"`
	Previous   string  `json:"previous"`
	HullArea   float64 `json:"hull_area"`
	DetectedAt string  `json:"detected_at"`
}

type sessionDetailResponse struct {
	sessionResponse
	Detections []detectionResponse `json:"detections"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:             s.ID,
		Source:         s.Source,
		StartedAt:      formatTime(s.StartedAt),
		Frames:         s.Frames,
		NoRegionFrames: s.NoRegionFrames,
		MeanArea:       s.MeanArea,
		StdArea:        s.StdArea,
		ShapeCounts:    s.ShapeCounts,
	}
	if s.EndedAt != nil {
		resp.EndedAt = formatTime(*s.EndedAt)
	}
	return resp
}

// list handles GET /api/sessions?limit=N.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		item := toSessionResponse(s)
		if item.DetectionCount, err = h.store.Detections().CountBySession(s.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to count detections")
			return
		}
		resp.Sessions = append(resp.Sessions, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/sessions/{id} and includes the session's detections.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	detections, err := h.store.Detections().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list detections")
		return
	}

	resp := sessionDetailResponse{
		sessionResponse: toSessionResponse(s),
		Detections:      make([]detectionResponse, 0, len(detections)),
	}
	resp.DetectionCount = len(detections)
	for _, d := range detections {
		resp.Detections = append(resp.Detections, detectionResponse{
			Frame:      d.Frame,
			Shape:      string(d.Shape),
			Label:      d.Shape.Label(),
			Previous:   string(d.Previous),
			HullArea:   d.HullArea,
			DetectedAt: formatTime(d.DetectedAt),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
