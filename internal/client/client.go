// Package client talks to the potager REST service and implements the planner
// Backend on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"potager/internal/planner"
	"potager/pkg/domain"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status     int
	Message    string
	Violations []domain.Violation
}

func (e *APIError) Error() string {
	return fmt.Sprintf("potager api: %d %s", e.Status, e.Message)
}

// Is lets errors.Is match the planner sentinel for rejected imports.
func (e *APIError) Is(target error) bool {
	return target == planner.ErrMalformedDocument && e.Status == http.StatusBadRequest &&
		strings.Contains(e.Message, planner.ErrMalformedDocument.Error())
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the REST endpoints.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ planner.Backend = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.send(ctx, method, path, reader, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Error      string             `json:"error"`
			Violations []domain.Violation `json:"violations"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Violations = payload.Violations
		}
		return resp.Header, apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := io.Copy(w, resp.Body)
		return resp.Header, err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.Header, nil
}

// --- Cultures ---

func (c *Client) ListCultures(ctx context.Context) ([]domain.Culture, error) {
	var out []domain.Culture
	_, err := c.do(ctx, http.MethodGet, "/cultures", nil, &out)
	return out, err
}

func (c *Client) GetCulture(ctx context.Context, id string) (domain.Culture, error) {
	var out domain.Culture
	_, err := c.do(ctx, http.MethodGet, "/cultures/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateCulture(ctx context.Context, in domain.Culture) (domain.Culture, error) {
	var out domain.Culture
	_, err := c.do(ctx, http.MethodPost, "/cultures", in, &out)
	return out, err
}

func (c *Client) UpdateCulture(ctx context.Context, id string, in domain.Culture) (domain.Culture, error) {
	var out domain.Culture
	_, err := c.do(ctx, http.MethodPut, "/cultures/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteCulture(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/cultures/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) ImportCultures(ctx context.Context, in []domain.Culture) ([]domain.Culture, error) {
	var out []domain.Culture
	_, err := c.do(ctx, http.MethodPost, "/cultures/import", in, &out)
	return out, err
}

// PopularCrops lists the catalog by usage; limit <= 0 returns everything.
func (c *Client) PopularCrops(ctx context.Context, limit int) ([]domain.Crop, error) {
	path := "/cultures/popular"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.Crop
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListCrops returns the whole catalog.
func (c *Client) ListCrops(ctx context.Context) ([]domain.Crop, error) {
	return c.PopularCrops(ctx, 0)
}

// --- Plots ---

func (c *Client) ListPlots(ctx context.Context) ([]domain.Plot, error) {
	var out []domain.Plot
	_, err := c.do(ctx, http.MethodGet, "/parcelles", nil, &out)
	return out, err
}

func (c *Client) GetPlot(ctx context.Context, id string) (domain.Plot, error) {
	var out domain.Plot
	_, err := c.do(ctx, http.MethodGet, "/parcelles/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) SetCell(ctx context.Context, plotID string, row, col int, cell *domain.CellAssignment) (domain.Plot, error) {
	body := struct {
		PlotID string                 `json:"plot_id"`
		Row    int                    `json:"row"`
		Col    int                    `json:"col"`
		Cell   *domain.CellAssignment `json:"cell"`
	}{plotID, row, col, cell}
	var out domain.Plot
	_, err := c.do(ctx, http.MethodPost, "/parcelles", body, &out)
	return out, err
}

func (c *Client) CreatePlot(ctx context.Context, name string, rows, cols int) (domain.Plot, error) {
	body := struct {
		Name string `json:"name"`
		Rows int    `json:"rows"`
		Cols int    `json:"cols"`
	}{name, rows, cols}
	var out domain.Plot
	_, err := c.do(ctx, http.MethodPost, "/parcelles/create", body, &out)
	return out, err
}

func (c *Client) DeletePlot(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/parcelles/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) ListPositions(ctx context.Context) ([]domain.Position, error) {
	var out []domain.Position
	_, err := c.do(ctx, http.MethodGet, "/parcelles/positions", nil, &out)
	return out, err
}

func (c *Client) SetPosition(ctx context.Context, pos domain.Position) (domain.Position, []domain.Violation, error) {
	var out struct {
		domain.Position
		Warnings []domain.Violation `json:"warnings"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/parcelles/position", pos, &out); err != nil {
		return domain.Position{}, nil, err
	}
	return out.Position, out.Warnings, nil
}

// --- Garden ---

func (c *Client) GardenSize(ctx context.Context) (domain.Garden, error) {
	var out domain.Garden
	_, err := c.do(ctx, http.MethodGet, "/potager/size", nil, &out)
	return out, err
}

func (c *Client) SetGardenSize(ctx context.Context, size domain.Garden) (domain.Garden, error) {
	var out domain.Garden
	_, err := c.do(ctx, http.MethodPost, "/potager/size", size, &out)
	return out, err
}

// --- Versions ---

func (c *Client) ListVersions(ctx context.Context) ([]domain.Version, error) {
	var out []domain.Version
	_, err := c.do(ctx, http.MethodGet, "/versions", nil, &out)
	return out, err
}

func (c *Client) CreateVersion(ctx context.Context, v domain.Version) (domain.Version, error) {
	var out domain.Version
	_, err := c.do(ctx, http.MethodPost, "/versions", v, &out)
	return out, err
}

func (c *Client) ImportVersion(ctx context.Context, v domain.Version) (domain.Version, error) {
	var out domain.Version
	_, err := c.do(ctx, http.MethodPost, "/versions/import", v, &out)
	return out, err
}

// ExportVersion streams the server's export document for id into w and
// returns the archive URL the server reported, if any.
func (c *Client) ExportVersion(ctx context.Context, id string, w io.Writer) (string, error) {
	header, err := c.send(ctx, http.MethodGet, "/versions/export/"+url.PathEscape(id), nil, w)
	if err != nil {
		return "", err
	}
	return header.Get("X-Export-URL"), nil
}
