package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"potager/pkg/domain"
)

// NamePrompt asks the user for a version name. ok is false when the user
// cancels.
type NamePrompt func() (name string, ok bool)

// CreateVersion snapshots the working plots, positions and grids under a
// prompted name. Each grid is cut or padded to its plot's rows*cols.
func (e *Engine) CreateVersion(ctx context.Context, prompt NamePrompt) (domain.Version, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var name string
	if prompt != nil {
		var ok bool
		name, ok = prompt()
		if !ok {
			return domain.Version{}, ErrCancelled
		}
	}

	doc := domain.Version{
		Name:      name,
		Plots:     make([]domain.PlotRef, 0, len(e.plots)),
		Positions: clonePositions(e.positions),
		Cells:     make(map[string]domain.Grid, len(e.plots)),
	}
	for _, p := range e.plots {
		doc.Plots = append(doc.Plots, p.Ref())
		doc.Cells[p.ID] = p.Grid.Resize(p.Size())
	}

	created, err := e.backend.CreateVersion(ctx, doc)
	if err != nil {
		return domain.Version{}, fmt.Errorf("create version: %w", err)
	}
	e.versions = append([]domain.Version{created.Clone()}, e.versions...)
	e.current = created.ID
	return created, nil
}

// Versions lists the known versions, newest first.
func (e *Engine) Versions() []domain.Version {
	return e.State().Versions
}

// RestoreVersion replaces the working plots and positions with the version's
// copies. A selected plot missing from the version is deselected.
func (e *Engine) RestoreVersion(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.findVersion(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVersion, id)
	}
	e.restore(v)
	return nil
}

func (e *Engine) restore(v domain.Version) {
	plots := make([]domain.Plot, 0, len(v.Plots))
	for i, ref := range v.Plots {
		plots = append(plots, domain.Plot{
			Base: domain.Base{ID: ref.ID},
			Name: ref.Name,
			Rows: ref.Rows,
			Cols: ref.Cols,
			Seq:  i + 1,
			Grid: v.Cells[ref.ID].Resize(ref.Rows * ref.Cols),
		})
	}
	positions := make(map[string]domain.Position, len(v.Positions))
	for id, pos := range v.Positions {
		pos.PlotID = id
		positions[id] = pos
	}
	e.plots = plots
	e.positions = positions
	if e.selectedPlot != "" && e.plotIndex(e.selectedPlot) < 0 {
		e.selectedPlot = ""
	}
	e.current = v.ID
}

// ExportVersion writes the version document as indented JSON.
func (e *Engine) ExportVersion(w io.Writer, id string) error {
	e.mu.Lock()
	v, ok := e.findVersion(id)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVersion, id)
	}
	return EncodeVersion(w, v)
}

// ImportVersion decodes an exported document and stores it as a new version.
// Nothing is stored when the document is malformed.
func (e *Engine) ImportVersion(ctx context.Context, r io.Reader) (domain.Version, error) {
	doc, err := DecodeVersion(r)
	if err != nil {
		return domain.Version{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	created, err := e.backend.ImportVersion(ctx, doc)
	if err != nil {
		return domain.Version{}, fmt.Errorf("import version: %w", err)
	}
	versions, err := e.backend.ListVersions(ctx)
	if err != nil {
		e.logger.Warn("refresh versions after import", "error", err)
		e.versions = append([]domain.Version{created.Clone()}, e.versions...)
		return created, nil
	}
	e.setVersions(versions)
	return created, nil
}

// EncodeVersion writes v as an indented JSON document.
func EncodeVersion(w io.Writer, v domain.Version) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// DecodeVersion parses an exported version document. Unknown fields, trailing
// data, and plots without an id, with a repeated id or with non-positive
// dimensions are rejected with ErrMalformedDocument.
func DecodeVersion(r io.Reader) (domain.Version, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Version{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var v domain.Version
	if err := dec.Decode(&v); err != nil {
		return domain.Version{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.Version{}, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}
	seen := make(map[string]struct{}, len(v.Plots))
	for i, ref := range v.Plots {
		if ref.ID == "" {
			return domain.Version{}, fmt.Errorf("%w: plot %d has no id", ErrMalformedDocument, i)
		}
		if _, dup := seen[ref.ID]; dup {
			return domain.Version{}, fmt.Errorf("%w: duplicate plot id %s", ErrMalformedDocument, ref.ID)
		}
		seen[ref.ID] = struct{}{}
		if ref.Rows <= 0 || ref.Cols <= 0 {
			return domain.Version{}, fmt.Errorf("%w: plot %s has dimensions %dx%d", ErrMalformedDocument, ref.ID, ref.Rows, ref.Cols)
		}
	}
	return v, nil
}

func (e *Engine) findVersion(id string) (domain.Version, bool) {
	for _, v := range e.versions {
		if v.ID == id {
			return v.Clone(), true
		}
	}
	return domain.Version{}, false
}
