package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/floorsmith/pkg/plan"
)

// DOTOptions configures the connectivity diagram.
type DOTOptions struct {
	// Detailed includes footprint and purpose in node labels.
	Detailed bool
}

// ToDOT converts a plan's connectivity to Graphviz DOT: one box per space,
// one undirected-looking edge per door connection labeled with the parent
// door's wall and position. Doors leading outside connect to a shared
// "outside" node; pending doors are omitted. The resulting DOT string can be
// rendered with [RenderDOTSVG] or [RenderDOTPNG].
func ToDOT(spaces []plan.Space, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("graph plan {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.1\"];\n")
	buf.WriteString("  edge [fontsize=9, color=\"#6b6250\"];\n")
	buf.WriteString("\n")

	hasOutside := false
	for i := range spaces {
		s := &spaces[i]
		attrs := fmt.Sprintf("label=%q", nodeLabel(s, opts.Detailed))
		if s.PositionLocked {
			attrs += ", fillcolor=\"#e8dfc8\""
		}
		if s.AccessPoint {
			attrs += ", peripheries=2"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", s.Key(), attrs)
	}

	buf.WriteString("\n")
	for i := range spaces {
		s := &spaces[i]
		for _, d := range s.Doors {
			if d.Reciprocal {
				continue // the parent side draws the edge
			}
			switch {
			case d.LeadsTo == plan.LeadsToOutside:
				hasOutside = true
				fmt.Fprintf(&buf, "  %q -- outside [label=%q];\n", s.Key(), edgeLabel(d))
			case plan.Resolve(spaces, d.LeadsTo) != nil:
				fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", s.Key(), d.LeadsTo, edgeLabel(d))
			}
		}
	}

	if hasOutside {
		buf.WriteString("\n  outside [shape=plaintext, fillcolor=transparent];\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(s *plan.Space, detailed bool) string {
	if !detailed {
		return s.Key()
	}
	label := fmt.Sprintf("%s\n%.0f×%.0f ft", s.Key(), s.Size.Width, s.Size.Height)
	if s.Purpose != "" {
		label += "\n" + s.Purpose
	}
	return label
}

func edgeLabel(d plan.Door) string {
	return fmt.Sprintf("%s@%.0f", d.Wall, d.Position)
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderDOT(dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderDOTPNG renders a DOT graph to PNG using Graphviz.
func RenderDOTPNG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderDOT(dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderDOT(dot string, format graphviz.Format, buf *bytes.Buffer) error {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's pt-based svg tag to a plain pixel
// viewBox so the output scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
