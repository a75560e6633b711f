package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"potager/internal/planner"
	"potager/pkg/domain"
)

// --- Culture handlers ---

// GET /cultures
func (s *Server) handleListCultures(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListCultures(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// GET /cultures/popular?limit=n: crop catalog by usage.
func (s *Server) handlePopularCrops(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	crops, err := s.svc.PopularCrops(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(crops))
}

// GET /cultures/{id}
func (s *Server) handleGetCulture(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCulture(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /cultures
func (s *Server) handleCreateCulture(w http.ResponseWriter, r *http.Request) {
	var in domain.Culture
	if !decode(w, r, &in) {
		return
	}
	created, _, err := s.svc.CreateCulture(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// POST /cultures/import: JSON array, all or nothing.
func (s *Server) handleImportCultures(w http.ResponseWriter, r *http.Request) {
	var in []domain.Culture
	if !decode(w, r, &in) {
		return
	}
	created, _, err := s.svc.ImportCultures(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PUT /cultures/{id}
func (s *Server) handleUpdateCulture(w http.ResponseWriter, r *http.Request) {
	var in domain.Culture
	if !decode(w, r, &in) {
		return
	}
	updated, _, err := s.svc.UpdateCulture(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DELETE /cultures/{id}
func (s *Server) handleDeleteCulture(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.DeleteCulture(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Plot handlers ---

// GET /parcelles
func (s *Server) handleListPlots(w http.ResponseWriter, r *http.Request) {
	plots, err := s.svc.ListPlots(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(plots))
}

// GET /parcelles/{id}
func (s *Server) handleGetPlot(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPlot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CellEdit is the body of POST /parcelles.
type CellEdit struct {
	PlotID string          `json:"plot_id"`
	Row    int             `json:"row"`
	Col    int             `json:"col"`
	Cell   json.RawMessage `json:"cell"`
}

// POST /parcelles: write one cell; a null or empty cell clears it.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	var in CellEdit
	if !decode(w, r, &in) {
		return
	}
	cell, err := decodeCell(in.Cell)
	if err != nil {
		jsonError(w, "invalid cell: "+err.Error(), http.StatusBadRequest)
		return
	}
	plot, _, err := s.svc.SetCell(r.Context(), in.PlotID, in.Row, in.Col, cell)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

func decodeCell(raw json.RawMessage) (*domain.CellAssignment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil, nil
	}
	var cell domain.CellAssignment
	if err := json.Unmarshal(trimmed, &cell); err != nil {
		return nil, err
	}
	return &cell, nil
}

// NewPlot is the body of POST /parcelles/create.
type NewPlot struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// POST /parcelles/create
func (s *Server) handleCreatePlot(w http.ResponseWriter, r *http.Request) {
	in := NewPlot{Rows: 1, Cols: 1}
	if !decode(w, r, &in) {
		return
	}
	p, _, err := s.svc.CreatePlot(r.Context(), in.Name, in.Rows, in.Cols)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DELETE /parcelles/{id}: positions and versions keep their references.
func (s *Server) handleDeletePlot(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.DeletePlot(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /parcelles/positions
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.ListPositions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(positions))
}

// PositionResponse answers POST /parcelles/position.
type PositionResponse struct {
	domain.Position
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

// POST /parcelles/position
func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	var in domain.Position
	if !decode(w, r, &in) {
		return
	}
	stored, res, err := s.svc.SetPosition(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PositionResponse{Position: stored, Warnings: res.Warnings()})
}

// --- Garden handlers ---

// GardenResponse answers the garden size endpoints.
type GardenResponse struct {
	domain.Garden
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

// GET /potager/size
func (s *Server) handleGardenSize(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GardenSize(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GardenResponse{Garden: g})
}

// POST /potager/size
func (s *Server) handleSetGardenSize(w http.ResponseWriter, r *http.Request) {
	var in domain.Garden
	if !decode(w, r, &in) {
		return
	}
	g, res, err := s.svc.SetGardenSize(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GardenResponse{Garden: g, Warnings: res.Warnings()})
}

// --- Version handlers ---

// GET /versions: newest first.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.svc.ListVersions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(versions))
}

// POST /versions
func (s *Server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var in domain.Version
	if !decode(w, r, &in) {
		return
	}
	created, _, err := s.svc.CreateVersion(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /versions/export/{id}: downloadable document, also archived.
func (s *Server) handleExportVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.archive != nil {
		entry, err := s.archive.Save(r.Context(), v)
		if err != nil {
			s.logger.Error("archive export", "version_id", v.ID, "error", err)
		} else {
			w.Header().Set("X-Export-Key", entry.Key)
			if entry.URL != "" {
				w.Header().Set("X-Export-URL", entry.URL)
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "version-"+v.ID+".json"))
	if err := planner.EncodeVersion(w, v); err != nil {
		s.logger.Error("write export", "version_id", v.ID, "error", err)
	}
}

// POST /versions/import: 400 on a malformed document, nothing stored.
func (s *Server) handleImportVersion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	doc, err := planner.DecodeVersion(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, _, err := s.svc.ImportVersion(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
