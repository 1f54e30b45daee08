package tree

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"unamxx/internal/amx"
)

// Header opens every printed plugin.
const Header = "// Plugin source approximation starts here\n\n"

// PrintOptions controls Print. The zero value prints nothing but bodies;
// use DefaultPrintOptions for the standard layout.
type PrintOptions struct {
	Indent  int  // spaces per nesting level
	EmitRaw bool // print leftover instructions as #emit lines
	Header  bool
	// DecodeText converts recovered string bytes before quoting. nil keeps
	// them as they are.
	DecodeText func(string) string
}

// DefaultPrintOptions is the standard layout.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{Indent: 2, EmitRaw: true, Header: true}
}

// Print renders t as pseudo-source.
func Print(t *Tree, opts PrintOptions) string {
	var b strings.Builder
	Fprint(&b, t, opts)
	return b.String()
}

// Fprint writes the rendering of t to w.
func Fprint(w io.Writer, t *Tree, opts PrintOptions) error {
	p := printer{opts: opts}
	if opts.Header {
		p.b.WriteString(Header)
	}
	for _, n := range t.Nodes {
		p.node(n, 0)
	}
	_, err := io.WriteString(w, p.b.String())
	return err
}

type printer struct {
	opts PrintOptions
	b    strings.Builder
}

func (p *printer) indent(depth int) {
	p.b.WriteString(strings.Repeat(" ", depth*p.opts.Indent))
}

func (p *printer) node(n Node, depth int) {
	switch n.Kind {
	case KindInstruction:
		if !p.opts.EmitRaw {
			return
		}
		p.indent(depth)
		fmt.Fprintf(&p.b, "#emit %s", n.Inst.Op)
		if n.Inst.HasArg {
			fmt.Fprintf(&p.b, "\t0x%X", n.Inst.Arg)
		}
		p.b.WriteByte('\n')
	case KindFunction:
		f := n.Func
		p.indent(depth)
		if f.Visibility == Public {
			p.b.WriteString("public ")
		}
		fmt.Fprintf(&p.b, "%s () {\n", f.Name)
		for _, c := range f.Children {
			p.node(c, depth+1)
		}
		p.indent(depth)
		p.b.WriteString("}\n\n")
	case KindCall:
		p.indent(depth)
		p.b.WriteString(n.Call.Name)
		p.b.WriteByte('(')
		for i, a := range n.Call.Args {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.b.WriteString(p.argument(a))
		}
		p.b.WriteString(");\n")
	}
}

func (p *printer) argument(c amx.Constant) string {
	if c.Kind != amx.ConstText {
		return strconv.FormatUint(uint64(c.Cell), 10)
	}
	s := c.Text
	if p.opts.DecodeText != nil {
		s = p.opts.DecodeText(s)
	}
	return strconv.Quote(s)
}
