package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/gesture"
)

// RangeStore holds the live HSV range.
type RangeStore interface {
	Range() detector.HSVRange
	Set(r detector.HSVRange) error
}

// CalibrationHandler serves GET and PUT /api/calibration.
type CalibrationHandler struct {
	ranges RangeStore
}

// NewCalibrationHandler creates a CalibrationHandler.
func NewCalibrationHandler(ranges RangeStore) *CalibrationHandler {
	return &CalibrationHandler{ranges: ranges}
}

func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ranges.Range())
	case http.MethodPut:
		// Omitted bounds keep their current value.
		rng := h.ranges.Range()
		if !decodeJSON(w, r, &rng) {
			return
		}
		if err := h.ranges.Set(rng); err != nil {
			if errors.Is(err, detector.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to update calibration")
			return
		}
		writeJSON(w, http.StatusOK, h.ranges.Range())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type ruleResponse struct {
	Shape string  `json:"shape"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
}

type thresholdsResponse struct {
	Rules []ruleResponse `json:"rules"`
}

// ThresholdsHandler serves GET /api/thresholds.
type ThresholdsHandler struct {
	table gesture.ThresholdTable
}

// NewThresholdsHandler creates a ThresholdsHandler for table.
func NewThresholdsHandler(table gesture.ThresholdTable) *ThresholdsHandler {
	return &ThresholdsHandler{table: table}
}

func (h *ThresholdsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := thresholdsResponse{Rules: make([]ruleResponse, 0, len(h.table))}
	for _, rule := range h.table {
		resp.Rules = append(resp.Rules, ruleResponse{
			Shape: string(rule.Shape),
			Label: rule.Shape.Label(),
			Min:   rule.Min,
			Max:   rule.Max,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
