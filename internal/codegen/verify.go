package codegen

import (
	"github.com/funvibe/blockjit/internal/diagnostics"
)

// verify checks the generated blocks of f before it is installed. depth is
// the builder's scope depth at the end of the body and dirty lists the
// variables left unsynced there.
func verify(f *Function, depth int, dirty []string) []error {
	var errs []error
	fail := func(code diagnostics.ErrorCode, format string, args ...interface{}) {
		errs = append(errs, diagnostics.Errorf(code, diagnostics.Location{Function: f.Name, Instr: -1}, format, args...))
	}

	if len(f.blocks) == 0 {
		fail(diagnostics.ErrB001, "function has no blocks")
	}
	for i := range f.blocks {
		blk := &f.blocks[i]
		if blk.term == nil {
			fail(diagnostics.ErrB001, "block %d has no terminator", i)
		}
		for _, s := range blk.succ {
			if s < 0 || s >= len(f.blocks) {
				fail(diagnostics.ErrB002, "block %d jumps to missing block %d", i, s)
			}
		}
		if blk.suspends && f.Mode == Warp {
			fail(diagnostics.ErrB003, "block %d suspends in a warp function", i)
		}
	}
	if depth != 0 {
		fail(diagnostics.ErrB004, "%d string scopes still open at function end", depth)
	}
	for _, name := range dirty {
		fail(diagnostics.ErrB005, "variable %s not written back at function end", name)
	}
	return errs
}
