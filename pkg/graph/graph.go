package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wsm/pkg/cache"
	errs "github.com/matzehuels/wsm/pkg/errors"
)

// =============================================================================
// Problem Serialization API
// =============================================================================

// FormatFromPath picks a format from the file extension: .json, .toml, or
// .txt/.wsm for the text edge-list format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".txt", ".wsm":
		return FormatText, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "%s: unknown extension, want .json, .toml, .txt or .wsm", path)
}

// ReadProblemFile reads and validates a problem file.
func ReadProblemFile(path string) (*Problem, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadProblem(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// ReadProblem decodes and validates a problem in the given format.
func ReadProblem(r io.Reader, format string) (*Problem, error) {
	var p Problem
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&p); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatText:
		parsed, err := parseText(r)
		if err != nil {
			return nil, err
		}
		p = *parsed
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteProblem encodes p in the given format.
func WriteProblem(p *Problem, w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(p); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatText:
		return writeText(p, w)
	}
	return errs.New(errs.ErrCodeInvalidFormat, "unknown format %q", format)
}

// WriteProblemFile writes p to path in the format its extension names.
func WriteProblemFile(p *Problem, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteProblem(p, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalProblem encodes p in the given format.
func MarshalProblem(p *Problem, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteProblem(p, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns a content hash of the two graphs. Edge order, edge
// orientation and the problem name do not affect it.
func Hash(p *Problem) string {
	n := Problem{Pattern: p.Pattern, Target: p.Target}
	n.Normalize()
	data, _ := json.Marshal(struct {
		Pattern []Edge `json:"p"`
		Target  []Edge `json:"t"`
	}{n.Pattern, n.Target})
	return cache.Hash(data)
}

// =============================================================================
// Result Serialization
// =============================================================================

// WriteResult writes r as indented JSON.
func WriteResult(r *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// UnmarshalResult decodes a JSON result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode result")
	}
	return &r, nil
}
