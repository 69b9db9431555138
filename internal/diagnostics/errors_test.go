package diagnostics

import "testing"

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		err  *DiagnosticError
		want string
	}{
		{NewError(ErrL001, NoLocation, "no such file"), "error [L001]: no such file"},
		{NewError(ErrB004, Location{Function: "script main", Instr: -1}, "2 scopes open"), "script main: error [B004]: 2 scopes open"},
		{Errorf(ErrB001, Location{Function: "procedure p", Instr: 3}, "block %d", 7), "procedure p[3]: error [B001]: block 7"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	e := NewError(ErrR001, NoLocation, "boom")
	e.File = "game.yaml"
	if got := e.Error(); got != "game.yaml: error [R001]: boom" {
		t.Errorf("with file: %q", got)
	}
}
