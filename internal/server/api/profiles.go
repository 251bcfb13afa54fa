package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/store"
)

// ProfileHandler handles /api/profiles and /api/profiles/{id}[/apply].
type ProfileHandler struct {
	store  *store.Store
	ranges RangeStore
}

// NewProfileHandler creates a ProfileHandler. ranges receives applied
// profiles and may be nil, which disables the apply endpoint.
func NewProfileHandler(s *store.Store, ranges RangeStore) *ProfileHandler {
	return &ProfileHandler{store: s, ranges: ranges}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/profiles")

	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 1:
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 2 && parts[1] == "apply":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.apply(w, r, parts[0])

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type profileRequest struct {
	Name  string             `json:"name"`
	Range *detector.HSVRange `json:"range"`
}

type profileResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Range     detector.HSVRange `json:"range"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toProfileResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Range:     p.Range,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	resp := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// create handles POST /api/profiles. Without a range the live range is saved.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var rng detector.HSVRange
	switch {
	case req.Range != nil:
		rng = *req.Range
	case h.ranges != nil:
		rng = h.ranges.Range()
	default:
		writeError(w, http.StatusBadRequest, "range is required")
		return
	}
	if err := rng.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Profiles().GetByName(name); err == nil {
		writeError(w, http.StatusConflict, "Profile with this name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing profile")
		return
	}

	p := &store.Profile{ID: uuid.New().String(), Name: name, Range: rng}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" && name != p.Name {
		if _, err := h.store.Profiles().GetByName(name); err == nil {
			writeError(w, http.StatusConflict, "Profile with this name already exists")
			return
		}
		p.Name = name
	}
	if req.Range != nil {
		if err := req.Range.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Range = *req.Range
	}

	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// apply handles POST /api/profiles/{id}/apply and makes the profile's range live.
func (h *ProfileHandler) apply(w http.ResponseWriter, r *http.Request, id string) {
	if h.ranges == nil {
		writeError(w, http.StatusServiceUnavailable, "Live calibration not available")
		return
	}

	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if err := h.ranges.Set(p.Range); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.ranges.Range())
}

func (h *ProfileHandler) lookup(w http.ResponseWriter, id string) (*store.Profile, bool) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return nil, false
	}
	return p, true
}
