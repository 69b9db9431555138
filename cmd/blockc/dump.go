package main

import (
	"fmt"
	"io"

	"github.com/funvibe/blockjit/internal/analyzer"
	"github.com/funvibe/blockjit/internal/codegen"
	"github.com/funvibe/blockjit/internal/ir"
	"github.com/funvibe/blockjit/internal/pipeline"
)

// dump prints every function's instruction listing annotated with the
// analyzed types, followed by its compiled blocks when it built.
func dump(w io.Writer, ctx *pipeline.PipelineContext) {
	p := ctx.Program
	entry := func() analyzer.TypeMap { return analyzer.Unknown(len(p.Variables), len(p.Lists)) }

	var mod *codegen.Module
	if ctx.Built != nil {
		mod = ctx.Built.Module
	}

	for i := range p.Procedures {
		proc := &p.Procedures[i]
		var fn *codegen.Function
		if mod != nil {
			fn = mod.Procedures[i]
		}
		dumpFunction(w, p, "procedure "+proc.Name, proc.Body, entry(), fn)
	}
	for i := range p.Scripts {
		s := &p.Scripts[i]
		var fn *codegen.Function
		if mod != nil {
			fn = mod.Scripts[i]
		}
		dumpFunction(w, p, "script "+s.Name, s.Body, entry(), fn)
	}
}

func dumpFunction(w io.Writer, p *ir.Program, name string, body ir.Body, entry analyzer.TypeMap, fn *codegen.Function) {
	res, err := analyzer.Analyze(body, entry)
	annotate := func(i int) string {
		if res == nil {
			return ""
		}
		note := ""
		if t, ok := res.Before[i]; ok {
			note = "pre=" + t.String()
		}
		if t := res.Types[i]; t != ir.TypeNone {
			if note != "" {
				note += " "
			}
			note += "type=" + t.String()
		}
		return note
	}

	fmt.Fprint(w, ir.Disassemble(p, body, name, annotate))
	if err != nil {
		fmt.Fprintf(w, "; analysis failed: %s\n", err)
	} else {
		fmt.Fprintf(w, "; %d loop passes\n", res.Passes)
	}
	if fn != nil {
		fmt.Fprint(w, fn.Disassemble())
	}
	fmt.Fprintln(w)
}
