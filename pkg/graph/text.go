package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	errs "github.com/matzehuels/wsm/pkg/errors"
)

// The text format lists edges as a-b:weight after a section keyword.
// Separators are optional and the weight defaults to 1:
//
//	# triangle into a weighted square with one diagonal
//	pattern: 0-1:3; 1-2:5; 0-2
//	target:
//	  10-11:4; 11-12:6
//	  12-13:1; 13-10:2
//	  10-12:9
type textFile struct {
	Sections []*textSection `parser:"@@*"`
}

type textSection struct {
	Kind  string      `parser:"@( \"pattern\" | \"target\" ) \":\""`
	Edges []*textEdge `parser:"( @@ \";\"? )*"`
}

type textEdge struct {
	A      uint64  `parser:"@Int \"-\""`
	B      uint64  `parser:"@Int"`
	Weight *uint64 `parser:"( \":\" @Int )?"`
}

var textLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_]+`},
	{Name: "Punct", Pattern: `[-:;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var textParser = participle.MustBuild[textFile](
	participle.Lexer(textLexer),
	participle.Elide("Comment", "Whitespace"),
)

func parseText(r io.Reader) (*Problem, error) {
	file, err := textParser.Parse("", r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse text")
	}
	var p Problem
	seen := map[string]bool{}
	for _, s := range file.Sections {
		if seen[s.Kind] {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "section %q given twice", s.Kind)
		}
		seen[s.Kind] = true

		edges := make([]Edge, 0, len(s.Edges))
		for _, e := range s.Edges {
			w := uint64(DefaultWeight)
			if e.Weight != nil {
				w = *e.Weight
			}
			edges = append(edges, Edge{A: e.A, B: e.B, Weight: w})
		}
		if s.Kind == "pattern" {
			p.Pattern = edges
		} else {
			p.Target = edges
		}
	}
	return &p, nil
}

func writeText(p *Problem, w io.Writer) error {
	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "# %s\n", p.Name)
	}
	writeSection(&b, "pattern", p.Pattern)
	writeSection(&b, "target", p.Target)
	_, err := io.WriteString(w, b.String())
	return err
}

// writeSection emits at most eight edges per line.
func writeSection(b *strings.Builder, kind string, edges []Edge) {
	b.WriteString(kind + ":")
	for i, e := range edges {
		if i%8 == 0 {
			b.WriteString("\n ")
		}
		fmt.Fprintf(b, " %d-%d:%d;", e.A, e.B, e.Weight)
	}
	b.WriteString("\n")
}
