package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// renderPreview renders Markdown article content as terminal text. Raw HTML
// is dropped; everything else keeps its text.
func renderPreview(content string, width int, st styles) string {
	src := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	r := &previewRenderer{src: src, st: st, width: width}
	r.blocks(doc)
	return strings.TrimRight(r.b.String(), "\n")
}

type previewRenderer struct {
	src   []byte
	st    styles
	width int
	b     strings.Builder
}

func (r *previewRenderer) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n)
	}
}

func (r *previewRenderer) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		r.line(r.st.Heading.Render(strings.Repeat("#", n.Level) + " " + r.inline(n)))
		r.blank()
	case *ast.Paragraph:
		r.paragraph(r.inline(n))
		r.blank()
	case *ast.TextBlock:
		r.paragraph(r.inline(n))
	case *ast.List:
		num := n.Start
		if num == 0 {
			num = 1
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			bullet := "• "
			if n.IsOrdered() {
				bullet = fmt.Sprintf("%d. ", num)
				num++
			}
			r.nested(item, bullet, strings.Repeat(" ", len([]rune(bullet))))
		}
		r.blank()
	case *ast.Blockquote:
		r.nested(n, "│ ", "│ ")
		r.blank()
	case *ast.FencedCodeBlock:
		r.code(n.Lines())
	case *ast.CodeBlock:
		r.code(n.Lines())
	case *ast.ThematicBreak:
		r.line(r.st.Muted.Render(strings.Repeat("─", r.ruleWidth())))
		r.blank()
	case *ast.HTMLBlock:
		// markup only
	default:
		r.blocks(n)
	}
}

// nested renders n's children narrower and prefixes the result.
func (r *previewRenderer) nested(n ast.Node, first, rest string) {
	width := r.width
	if width > 0 {
		width -= lipgloss.Width(first)
	}
	sub := &previewRenderer{src: r.src, st: r.st, width: width}
	sub.blocks(n)
	body := strings.TrimRight(sub.b.String(), "\n")
	for i, l := range strings.Split(body, "\n") {
		prefix := rest
		if i == 0 {
			prefix = first
		}
		if n.Kind() == ast.KindBlockquote {
			prefix = r.st.Quote.Render(prefix)
		}
		r.line(prefix + l)
	}
}

func (r *previewRenderer) code(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		r.line("    " + r.st.Code.Render(strings.TrimRight(string(seg.Value(r.src)), "\n")))
	}
	r.blank()
}

func (r *previewRenderer) inline(parent ast.Node) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(r.src))
			switch {
			case n.HardLineBreak():
				b.WriteString("\n")
			case n.SoftLineBreak():
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.Emphasis:
			if n.Level >= 2 {
				b.WriteString(r.st.Strong.Render(r.inline(n)))
			} else {
				b.WriteString(r.st.Emphasis.Render(r.inline(n)))
			}
		case *ast.CodeSpan:
			b.WriteString(r.st.Code.Render(r.inline(n)))
		case *ast.Link:
			label := r.inline(n)
			dest := string(n.Destination)
			b.WriteString(r.st.Link.Render(label))
			if dest != "" && dest != label {
				b.WriteString(" (" + dest + ")")
			}
		case *ast.AutoLink:
			b.WriteString(r.st.Link.Render(string(n.URL(r.src))))
		case *ast.Image:
			b.WriteString(r.st.Muted.Render("[image: " + r.inline(n) + "]"))
		case *ast.RawHTML:
			// tags dropped
		default:
			b.WriteString(r.inline(n))
		}
	}
	return b.String()
}

func (r *previewRenderer) paragraph(s string) {
	if r.width > 0 {
		s = lipgloss.NewStyle().Width(r.width).Render(s)
	}
	for _, l := range strings.Split(s, "\n") {
		r.line(strings.TrimRight(l, " "))
	}
}

func (r *previewRenderer) line(s string) {
	r.b.WriteString(s)
	r.b.WriteString("\n")
}

func (r *previewRenderer) blank() {
	out := r.b.String()
	if out == "" || strings.HasSuffix(out, "\n\n") {
		return
	}
	r.b.WriteString("\n")
}

func (r *previewRenderer) ruleWidth() int {
	if r.width <= 0 || r.width > 40 {
		return 40
	}
	return r.width
}
