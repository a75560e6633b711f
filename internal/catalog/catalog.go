// Package catalog loads the crop catalog from YAML or TOML files.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"potager/pkg/domain"
)

//go:embed default_crops.yaml
var defaultCatalog []byte

// Format is the encoding of a catalog document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// File is the on-disk shape of a catalog.
type File struct {
	Crops []domain.Crop `yaml:"crops" toml:"crops"`
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}

// Parse decodes and normalizes a catalog document. Missing ids are derived
// from the crop name; usage counts in the document are ignored.
func Parse(data []byte, format Format) ([]domain.Crop, error) {
	var file File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse yaml catalog: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse toml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return normalize(file.Crops)
}

// Load reads a catalog file. An empty path returns the embedded default.
func Load(path string) ([]domain.Crop, error) {
	if path == "" {
		return Default()
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, format)
}

// Default returns the embedded catalog.
func Default() ([]domain.Crop, error) {
	return Parse(defaultCatalog, FormatYAML)
}

func normalize(crops []domain.Crop) ([]domain.Crop, error) {
	out := make([]domain.Crop, 0, len(crops))
	seen := make(map[string]int, len(crops))
	for i, crop := range crops {
		crop.Name = strings.TrimSpace(crop.Name)
		crop.Emoji = strings.TrimSpace(crop.Emoji)
		if crop.Name == "" {
			return nil, fmt.Errorf("crop %d: name is required", i)
		}
		if crop.Emoji == "" {
			return nil, fmt.Errorf("crop %s: emoji is required", crop.Name)
		}
		if crop.ID == "" {
			crop.ID = Slug(crop.Name)
		}
		if prev, dup := seen[crop.ID]; dup {
			return nil, fmt.Errorf("crop %d: id %q already used by crop %d", i, crop.ID, prev)
		}
		seen[crop.ID] = i
		crop.UsageCount = 0
		out = append(out, crop)
	}
	return out, nil
}

// Slug lowercases name and joins its letter and digit runs with dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
