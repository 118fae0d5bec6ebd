package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteListing renders the class as a Jasmin-style assembler listing.
func WriteListing(w io.Writer, c *Class) error {
	if c == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}
	fmt.Fprintf(bw, ".class public %s\n.super %s\n", c.Name, super)
	if len(c.Fields) > 0 {
		bw.WriteString("\n")
		for _, f := range c.Fields {
			writeField(bw, f)
		}
	}
	for _, m := range c.Methods {
		bw.WriteString("\n")
		writeMethod(bw, m)
	}
	for _, r := range c.Records {
		fmt.Fprintf(bw, "\n; record\n.class public %s\n.super java/lang/Object\n", r.Name)
		for _, f := range r.Fields {
			writeField(bw, f)
		}
	}
	return bw.Flush()
}

func writeField(bw *bufio.Writer, f FieldDef) {
	access := "public"
	if f.Static {
		access = "private static"
	}
	fmt.Fprintf(bw, ".field %s %s %s\n", access, f.Name, f.Desc)
}

func writeMethod(bw *bufio.Writer, m *Method) {
	access := "public"
	if m.Static {
		access = "public static"
	}
	fmt.Fprintf(bw, ".method %s %s%s\n", access, m.Name, m.Desc)
	labelsAt := make(map[int][]string, len(m.Labels))
	for _, l := range m.Labels {
		labelsAt[l.Pos] = append(labelsAt[l.Pos], l.Label.String())
	}
	for i := range m.Code {
		for _, name := range labelsAt[i] {
			fmt.Fprintf(bw, "%s:\n", name)
		}
		fmt.Fprintf(bw, "\t%s\n", strings.ReplaceAll(m.Code[i].String(), "\n", "\n\t"))
	}
	for _, name := range labelsAt[len(m.Code)] {
		fmt.Fprintf(bw, "%s:\n", name)
	}
	fmt.Fprintf(bw, "\n.limit locals %d\n.limit stack %d\n.end method\n", m.MaxLocals, m.MaxStack)
}
