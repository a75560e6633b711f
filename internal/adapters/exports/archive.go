// Package exports archives exported version documents to the blob store.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"potager/internal/blob"
	"potager/internal/planner"
	"potager/pkg/domain"
)

// KeyPrefix is the root of every archived export.
const KeyPrefix = "exports/versions/"

// Archive writes one immutable blob per export.
type Archive struct {
	store  blob.Store
	now    func() time.Time
	expiry time.Duration
}

// Option customizes an Archive.
type Option func(*Archive)

// WithNow overrides the clock used to name archive keys.
func WithNow(now func() time.Time) Option {
	return func(a *Archive) {
		if now != nil {
			a.now = now
		}
	}
}

// WithURLExpiry sets the lifetime of pre-signed download URLs.
func WithURLExpiry(d time.Duration) Option {
	return func(a *Archive) {
		if d > 0 {
			a.expiry = d
		}
	}
}

// NewArchive returns an archive over store.
func NewArchive(store blob.Store, opts ...Option) *Archive {
	a := &Archive{store: store, now: time.Now, expiry: 15 * time.Minute}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Entry locates an archived export.
type Entry struct {
	Key string
	// URL is a pre-signed link when the backend supports it, otherwise the
	// backend's own locator, possibly empty.
	URL  string
	Size int64
}

// Key returns the blob key of an export of versionID taken at t.
func Key(versionID string, t time.Time) string {
	return fmt.Sprintf("%s%s/%s.json", KeyPrefix, versionID, t.UTC().Format("20060102T150405.000000000Z"))
}

// Save encodes v and stores it under a fresh key.
func (a *Archive) Save(ctx context.Context, v domain.Version) (Entry, error) {
	var buf bytes.Buffer
	if err := planner.EncodeVersion(&buf, v); err != nil {
		return Entry{}, fmt.Errorf("encode export: %w", err)
	}
	key := Key(v.ID, a.now())
	info, err := a.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"version-id": v.ID},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive export: %w", err)
	}
	entry := Entry{Key: info.Key, URL: info.URL, Size: info.Size}
	url, err := a.store.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: a.expiry})
	switch {
	case err == nil:
		entry.URL = url
	case errors.Is(err, blob.ErrUnsupported):
	default:
		return entry, fmt.Errorf("presign export: %w", err)
	}
	return entry, nil
}

// History lists the archived exports of one version, oldest first.
func (a *Archive) History(ctx context.Context, versionID string) ([]blob.Info, error) {
	return a.store.List(ctx, KeyPrefix+versionID+"/")
}
