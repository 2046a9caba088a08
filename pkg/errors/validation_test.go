package errors

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "problems/grid.toml", false},
		{"absolute", "/tmp/problem.json", false},
		{"simple", "problem.wsm", false},
		{"parent dir", "../problems/grid.toml", false},
		{"double dot in name", "grid..v2.json", false},
		{"windows separator", "problems\\grid.toml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "3f2b8c1e-9d4a-4b7e-8f21-0c5d6e7f8a9b", false},

		{"empty", "", true},
		{"uppercase", "3F2B8C1E-9D4A-4B7E-8F21-0C5D6E7F8A9B", true},
		{"path", "../3f2b8c1e-9d4a-4b7e-8f21-0c5d6e7f8a9b", true},
		{"short", "3f2b8c1e", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

type testEdge struct{ a, b uint64 }

func (e testEdge) Endpoints() (uint64, uint64) { return e.a, e.b }

func TestValidateEdges(t *testing.T) {
	tests := []struct {
		name    string
		edges   []testEdge
		wantErr bool
	}{
		{"empty", nil, false},
		{"path", []testEdge{{0, 1}, {1, 2}}, false},

		{"self loop", []testEdge{{0, 1}, {2, 2}}, true},
		{"duplicate", []testEdge{{0, 1}, {0, 1}}, true},
		{"reversed duplicate", []testEdge{{0, 1}, {1, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdges("pattern", tt.edges)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEdges() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidGraph) {
				t.Errorf("ValidateEdges() code = %v, want %v", GetCode(err), ErrCodeInvalidGraph)
			}
		})
	}
}
