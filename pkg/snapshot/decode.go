package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/hubmap/pkg/model"
)

// ErrUnsupportedFormat is returned for file extensions other than JSON and YAML.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Format is a snapshot serialization
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var validate = validator.New()

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

func decode(r io.Reader, format Format, v any) error {
	switch format {
	case JSON:
		return json.NewDecoder(r).Decode(v)
	case YAML:
		return yaml.NewDecoder(r).Decode(v)
	}
	return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
}

func encode(w io.Writer, format Format, v any) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
}

// DecodeNetwork reads and validates a network snapshot. Edges naming unknown
// nodes are accepted; the renderer skips them.
func DecodeNetwork(r io.Reader, format Format) (model.NetworkSnapshot, error) {
	var snap model.NetworkSnapshot
	if err := decode(r, format, &snap); err != nil {
		return model.NetworkSnapshot{}, fmt.Errorf("failed to decode network: %w", err)
	}
	if err := validate.Struct(snap); err != nil {
		return model.NetworkSnapshot{}, fmt.Errorf("invalid network: %w", err)
	}
	return snap, nil
}

// DecodeTracking reads and validates a tracking snapshot
func DecodeTracking(r io.Reader, format Format) (model.TrackingSnapshot, error) {
	var snap model.TrackingSnapshot
	if err := decode(r, format, &snap); err != nil {
		return model.TrackingSnapshot{}, fmt.Errorf("failed to decode tracking: %w", err)
	}
	if err := validate.Struct(snap); err != nil {
		return model.TrackingSnapshot{}, fmt.Errorf("invalid tracking: %w", err)
	}
	return snap, nil
}

// EncodeNetwork writes snap in the given format
func EncodeNetwork(w io.Writer, format Format, snap model.NetworkSnapshot) error {
	return encode(w, format, snap)
}
