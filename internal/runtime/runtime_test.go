package runtime

import (
	"strings"
	"testing"

	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

const counterProgram = `
sprites:
  - name: Cat
    cloneable: true
variables:
  - id: total
    value: 0
  - id: name
    value: "cat"
  - id: hits
    owner: Cat
    value: 0
scripts:
  - name: count
    body:
      - {op: repeat, args: [.inf]}
      - {op: change_var, var: total, args: [1]}
      - {id: r, op: read_var, var: name}
      - {id: j, op: join, args: [{ref: r}, "!"]}
      - {op: write_var, var: name, args: [{ref: j}]}
      - {op: yield}
      - {op: end_loop}
  - name: hit
    owner: Cat
    body:
      - {op: change_var, var: hits, args: [1]}
`

func build(t *testing.T, src string) *Program {
	t.Helper()
	p, err := ir.LoadProgram([]byte(src))
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	prog, errs := Build(p, Options{Seed: 7})
	if len(errs) > 0 {
		t.Fatalf("Build: %v", errs)
	}
	return prog
}

func unit(t *testing.T, prog *Program, name string) *Unit {
	t.Helper()
	u, err := prog.Unit(name)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRunSlices(t *testing.T) {
	prog := build(t, counterProgram)
	u := unit(t, prog, "count")
	ctx := u.CreateContext(prog.Target(u))

	for i := 0; i < 4; i++ {
		if u.Run(ctx) {
			t.Fatalf("finished on slice %d", i+1)
		}
	}
	if got := host.ToDouble(prog.Project.Stage.Variable("total").Value); got != 4 {
		t.Errorf("total = %v, want 4", got)
	}
	if got := prog.Project.Stage.Variable("name").Value.Str(); got != "cat!!!!" {
		t.Errorf("name = %q", got)
	}
	if st := ctx.Stats(); st.Suspends != 4 || st.Resumes != 3 {
		t.Errorf("stats = %+v", st)
	}
	if u.IsFinished(ctx) {
		t.Error("IsFinished before kill")
	}

	u.Kill(ctx)
	if !u.IsFinished(ctx) || !u.Run(ctx) {
		t.Error("killed context should report finished")
	}
	if n := ctx.LiveStrings(); n != 0 {
		t.Errorf("%d strings live after kill", n)
	}
}

func TestReset(t *testing.T) {
	prog := build(t, counterProgram)
	u := unit(t, prog, "count")
	ctx := u.CreateContext(prog.Target(u))
	total := prog.Project.Stage.Variable("total")

	u.Run(ctx)
	u.Run(ctx)
	u.Reset(ctx)
	if u.IsFinished(ctx) {
		t.Fatal("reset context reports finished")
	}
	total.Value = host.Number(0)
	u.Run(ctx)
	if got := host.ToDouble(total.Value); got != 1 {
		t.Errorf("total = %v after one slice of a reset context, want 1", got)
	}
	if ctx.Stats().Resumes != 1 {
		t.Errorf("resumes = %d, want 1", ctx.Stats().Resumes)
	}
	u.Kill(ctx)
}

func TestClonesRunIndependently(t *testing.T) {
	prog := build(t, counterProgram)
	u := unit(t, prog, "hit")
	cat := prog.Target(u)

	var clones []*host.Target
	for i := 0; i < 3; i++ {
		c, err := cat.Clone()
		if err != nil {
			t.Fatal(err)
		}
		clones = append(clones, c)
	}
	for i, c := range clones {
		for n := 0; n <= i; n++ {
			if !u.Run(u.CreateContext(c)) {
				t.Fatal("warp script did not finish in one slice")
			}
		}
	}

	for i, c := range clones {
		if got := host.ToDouble(c.Variable("hits").Value); got != float64(i+1) {
			t.Errorf("%s hits = %v, want %d", c.Name, got, i+1)
		}
	}
	if got := host.ToDouble(cat.Variable("hits").Value); got != 0 {
		t.Errorf("original hits = %v", got)
	}
}

func TestContextIDs(t *testing.T) {
	prog := build(t, counterProgram)
	u := unit(t, prog, "hit")
	a, b := u.CreateContext(prog.Target(u)), u.CreateContext(prog.Target(u))
	if a.ID == b.ID {
		t.Error("contexts share an ID")
	}
}

func TestPartialBuild(t *testing.T) {
	src := `
procedures:
  - name: broken
    body:
      - {op: if, args: [true]}
  - name: wrapper
    body:
      - {op: call, proc: broken}
scripts:
  - name: ok
    body:
      - {op: yield}
  - name: caller
    body:
      - {op: call, proc: wrapper}
`
	p, err := ir.LoadProgram([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	prog, errs := Build(p, Options{})
	want := []string{"procedure broken", "procedure wrapper", "script caller"}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	for i, w := range want {
		if !strings.Contains(errs[i].Error(), w) {
			t.Errorf("error %d = %q, want it to name %s", i, errs[i], w)
		}
	}

	if _, err := prog.Unit("ok"); err != nil {
		t.Error(err)
	}
	if _, err := prog.Unit("caller"); err == nil || !strings.Contains(err.Error(), "failed to build") {
		t.Errorf("Unit(caller) = %v", err)
	}
	if _, err := prog.Unit("missing"); err == nil || !strings.Contains(err.Error(), "no script") {
		t.Errorf("Unit(missing) = %v", err)
	}
}
