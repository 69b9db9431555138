package codegen

import (
	"math"
	"strings"
	"testing"

	"github.com/funvibe/blockjit/internal/analyzer"
	"github.com/funvibe/blockjit/internal/host"
	"github.com/funvibe/blockjit/internal/ir"
)

// program declares stage variables initialised to 0, in order
func program(vars ...string) *ir.Program {
	p := &ir.Program{}
	for _, v := range vars {
		p.Variables = append(p.Variables, ir.Variable{ID: v, Name: v, Init: host.Number(0)})
	}
	return p
}

func write(b *ir.Body, v int, arg ir.Operand) int {
	return b.Emit(ir.Instr{Op: ir.OP_WRITE_VAR, Var: v, Args: []ir.Operand{arg}})
}

func read(b *ir.Body, v int) int {
	return b.Emit(ir.Instr{Op: ir.OP_READ_VAR, Var: v})
}

func change(b *ir.Body, v int, arg ir.Operand) int {
	return b.Emit(ir.Instr{Op: ir.OP_CHANGE_VAR, Var: v, Args: []ir.Operand{arg}})
}

func mathop(b *ir.Body, fn ir.MathFn, arg ir.Operand) int {
	return b.Emit(ir.Instr{Op: ir.OP_MATHOP, Fn: fn, Args: []ir.Operand{arg}})
}

func compile(t *testing.T, p *ir.Program, opts Options) (*Module, *host.Project) {
	t.Helper()
	proj := ir.NewProject(p)
	mod, errs := Compile(p, proj, opts)
	if len(errs) > 0 {
		t.Fatalf("Compile: %v", errs)
	}
	return mod, proj
}

func script(t *testing.T, mod *Module, name string) *Function {
	t.Helper()
	fn, err := mod.Script(name)
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

func stageVar(proj *host.Project, id string) host.Value {
	return proj.Stage.Variable(id).Value
}

func TestRepeatCount(t *testing.T) {
	tests := []struct {
		count ir.Operand
		want  float64
	}{
		{ir.Num(-5), 0},
		{ir.Num(0.4), 0},
		{ir.Num(3.5), 4},
		{ir.Num(2.5), 3},
		{ir.Str("3"), 3},
		{ir.Str("abc"), 0},
	}

	for _, tt := range tests {
		p := program("x")
		var b ir.Body
		write(&b, 0, ir.Num(0))
		b.Op(ir.OP_REPEAT, tt.count)
		change(&b, 0, ir.Num(1))
		b.Op(ir.OP_END_LOOP)
		p.Scripts = []ir.Script{{Name: "main", Body: b}}

		mod, proj := compile(t, p, Options{})
		fn := script(t, mod, "main")
		if fn.Mode != Warp {
			t.Fatalf("mode = %s, want warp", fn.Mode)
		}
		if fr := fn.Entry(NewEnv(proj.Stage, 1)); fr != nil {
			t.Fatal("warp script returned a frame")
		}
		if got := host.ToDouble(stageVar(proj, "x")); got != tt.want {
			t.Errorf("repeat %s: x = %v, want %v", tt.count.Const.Inspect(), got, tt.want)
		}
	}
}

func TestRepeatForeverYields(t *testing.T) {
	p := program("x")
	var b ir.Body
	b.Op(ir.OP_REPEAT, ir.Num(math.Inf(1)))
	change(&b, 0, ir.Num(1))
	b.Op(ir.OP_YIELD)
	b.Op(ir.OP_END_LOOP)
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")
	if fn.Mode != Suspendable {
		t.Fatalf("mode = %s, want suspendable", fn.Mode)
	}

	env := NewEnv(proj.Stage, 1)
	fr := fn.Entry(env)
	if fr == nil {
		t.Fatal("script finished on entry")
	}
	for i := 0; i < 2; i++ {
		if fn.Resume(fr) {
			t.Fatalf("script finished on resume %d", i+1)
		}
	}
	if got := host.ToDouble(stageVar(proj, "x")); got != 3 {
		t.Errorf("x = %v after three slices, want 3", got)
	}
	if env.Stats.Suspends != 3 || env.Stats.Resumes != 2 {
		t.Errorf("stats = %+v", env.Stats)
	}

	fr.Release()
	if live := env.Heap.Live(); live != 0 {
		t.Errorf("heap live = %d after release", live)
	}
}

func TestNumericStringEquality(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"5.25 ", true},
		{" 5.25", true},
		{"5.25x", false},
		{"abc", false},
	}

	for _, tt := range tests {
		p := program("s", "folded", "runtime")
		p.Variables[0].Init = host.String(tt.s)
		var b ir.Body
		folded := b.Op(ir.OP_EQ, ir.Str(tt.s), ir.Num(5.25))
		write(&b, 1, ir.Ref(folded))
		r := read(&b, 0)
		eq := b.Op(ir.OP_EQ, ir.Ref(r), ir.Num(5.25))
		write(&b, 2, ir.Ref(eq))
		p.Scripts = []ir.Script{{Name: "main", Body: b}}

		mod, proj := compile(t, p, Options{})
		script(t, mod, "main").Entry(NewEnv(proj.Stage, 1))

		for _, id := range []string{"folded", "runtime"} {
			v := stageVar(proj, id)
			if v.Tag != host.TagBool || v.Truth() != tt.want {
				t.Errorf("%q = 5.25 (%s): got %s, want %v", tt.s, id, v.Inspect(), tt.want)
			}
		}
		if host.Equals(host.String(tt.s), host.Number(5.25)) != tt.want {
			t.Errorf("host disagrees for %q", tt.s)
		}
	}
}

func TestTan(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{90, math.Inf(1)},
		{-270, math.Inf(1)},
		{270, math.Inf(-1)},
		{450, math.Inf(1)},
		{45, 1},
		{0, 0},
	}

	for _, tt := range tests {
		p := program("a", "folded", "runtime")
		p.Variables[0].Init = host.Number(tt.x)
		var b ir.Body
		write(&b, 1, ir.Ref(mathop(&b, ir.FN_TAN, ir.Num(tt.x))))
		r := read(&b, 0)
		write(&b, 2, ir.Ref(mathop(&b, ir.FN_TAN, ir.Ref(r))))
		p.Scripts = []ir.Script{{Name: "main", Body: b}}

		mod, proj := compile(t, p, Options{})
		script(t, mod, "main").Entry(NewEnv(proj.Stage, 1))

		for _, id := range []string{"folded", "runtime"} {
			if got := host.ToDouble(stageVar(proj, id)); got != tt.want {
				t.Errorf("tan(%v) (%s) = %v, want %v", tt.x, id, got, tt.want)
			}
		}
	}
}

// sameNumber compares numbers bit for bit, except that all NaNs are equal
func sameNumber(a, b float64) bool {
	if a != a || b != b {
		return a != a && b != b
	}
	return a == b && math.Signbit(a) == math.Signbit(b)
}

func TestMathAlgorithms(t *testing.T) {
	type emitter func(b *ir.Body, x, y ir.Operand) int
	binary := func(op ir.Opcode) emitter {
		return func(b *ir.Body, x, y ir.Operand) int { return b.Op(op, x, y) }
	}
	unary := func(fn ir.MathFn) emitter {
		return func(b *ir.Body, x, _ ir.Operand) int { return mathop(b, fn, x) }
	}
	rounding := func(b *ir.Body, x, _ ir.Operand) int { return b.Op(ir.OP_ROUND, x) }
	nan, negZero := math.NaN(), math.Copysign(0, -1)

	tests := []struct {
		name string
		emit emitter
		x, y float64
		want float64
	}{
		{"mod(-1,3)", binary(ir.OP_MOD), -1, 3, 2},
		{"mod(1,-3)", binary(ir.OP_MOD), 1, -3, -2},
		{"mod(5.5,2)", binary(ir.OP_MOD), 5.5, 2, 1.5},
		{"mod(NaN,3)", binary(ir.OP_MOD), nan, 3, 0},
		{"add(NaN,1)", binary(ir.OP_ADD), nan, 1, 1},
		{"round(-0.3)", rounding, -0.3, 0, negZero},
		{"round(-0.5)", rounding, -0.5, 0, negZero},
		{"round(-0.6)", rounding, -0.6, 0, -1},
		{"round(2.5)", rounding, 2.5, 0, 3},
		{"round(-2.5)", rounding, -2.5, 0, -2},
		{"round(NaN)", rounding, nan, 0, 0},
		{"sqrt(NaN)", unary(ir.FN_SQRT), nan, 0, 0},
		{"sqrt(-0)", unary(ir.FN_SQRT), negZero, 0, 0},
		{"sqrt(-1)", unary(ir.FN_SQRT), -1, 0, nan},
		{"asin(-0)", unary(ir.FN_ASIN), negZero, 0, 0},
		{"atan(-0)", unary(ir.FN_ATAN), negZero, 0, 0},
		{"sin(NaN)", unary(ir.FN_SIN), nan, 0, 0},
		{"sin(30)", unary(ir.FN_SIN), 30, 0, 0.5},
		{"cos(90)", unary(ir.FN_COS), 90, 0, 0},
		{"ln(NaN)", unary(ir.FN_LN), nan, 0, math.Inf(-1)},
		{"log(NaN)", unary(ir.FN_LOG), nan, 0, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program("x", "y", "folded", "runtime")
			p.Variables[0].Init = host.Number(tt.x)
			p.Variables[1].Init = host.Number(tt.y)
			var b ir.Body
			write(&b, 2, ir.Ref(tt.emit(&b, ir.Num(tt.x), ir.Num(tt.y))))
			rx, ry := read(&b, 0), read(&b, 1)
			write(&b, 3, ir.Ref(tt.emit(&b, ir.Ref(rx), ir.Ref(ry))))
			p.Scripts = []ir.Script{{Name: "main", Body: b}}

			mod, proj := compile(t, p, Options{})
			script(t, mod, "main").Entry(NewEnv(proj.Stage, 1))

			for _, id := range []string{"folded", "runtime"} {
				if got := host.ToDouble(stageVar(proj, id)); !sameNumber(got, tt.want) {
					t.Errorf("%s = %v (signbit %v), want %v", id, got, math.Signbit(got), tt.want)
				}
			}
		})
	}
}

func TestStringSurvivesYield(t *testing.T) {
	p := program("x", "y", "z")
	p.Variables[2].Init = host.String("hello")
	var b ir.Body
	j := b.Op(ir.OP_JOIN, ir.Ref(read(&b, 2)), ir.Str(" world"))
	write(&b, 0, ir.Ref(j))
	b.Op(ir.OP_YIELD)
	write(&b, 1, ir.Ref(read(&b, 0)))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")
	env := NewEnv(proj.Stage, 1)

	fr := fn.Entry(env)
	if fr == nil {
		t.Fatal("script finished before its yield")
	}
	if got := stageVar(proj, "x"); got.Str() != "hello world" {
		t.Fatalf("x = %s at the yield", got.Inspect())
	}

	// another script changes x while this one is suspended
	proj.Stage.Variable("x").Value = host.Number(-4.8)
	if !fn.Resume(fr) {
		t.Fatal("script did not finish")
	}
	if got := stageVar(proj, "y"); got.Tag != host.TagNumber || got.Num() != -4.8 {
		t.Errorf("y = %s, want -4.8", got.Inspect())
	}
	if env.Heap.Live() != 0 {
		t.Errorf("heap live = %d", env.Heap.Live())
	}
}

func TestListGrowthInvalidatesOnce(t *testing.T) {
	p := program("before", "grown", "first", "contents", "length")
	p.Lists = []ir.List{{ID: "l", Name: "l", Init: []host.Value{host.Number(1), host.Number(2), host.Number(3)}}}
	var b ir.Body
	list := func(op ir.Opcode, args ...ir.Operand) int {
		return b.Emit(ir.Instr{Op: op, List: 0, Args: args})
	}
	write(&b, 0, ir.Ref(list(ir.OP_LIST_ITEM, ir.Num(3))))
	list(ir.OP_LIST_ADD, ir.Num(4))
	write(&b, 1, ir.Ref(list(ir.OP_LIST_ITEM, ir.Num(4))))
	write(&b, 2, ir.Ref(list(ir.OP_LIST_ITEM, ir.Num(1))))
	list(ir.OP_LIST_ADD, ir.Num(5))
	list(ir.OP_LIST_ADD, ir.Num(6))
	write(&b, 3, ir.Ref(list(ir.OP_LIST_CONTENTS)))
	write(&b, 4, ir.Ref(list(ir.OP_LIST_LENGTH)))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	env := NewEnv(proj.Stage, 1)
	script(t, mod, "main").Entry(env)

	l := proj.Stage.List("l")
	if env.Stats.ListInvalidations != 1 || env.Stats.ListRefreshes != 2 {
		t.Errorf("invalidations = %d refreshes = %d, want 1 and 2", env.Stats.ListInvalidations, env.Stats.ListRefreshes)
	}
	if l.Size() != 6 || l.Reallocs() != 1 {
		t.Errorf("size = %d reallocs = %d", l.Size(), l.Reallocs())
	}

	want := map[string]host.Value{
		"before":   host.Number(3),
		"grown":    host.Number(4),
		"first":    host.Number(1),
		"contents": host.String("123456"),
		"length":   host.Number(6),
	}
	for id, w := range want {
		if got := stageVar(proj, id); !host.Equals(got, w) || got.Tag != w.Tag {
			t.Errorf("%s = %s, want %s", id, got.Inspect(), w.Inspect())
		}
	}
}

func TestListOperations(t *testing.T) {
	p := program("item", "missing", "index", "has", "length", "contents")
	p.Lists = []ir.List{{ID: "l", Name: "l", Init: []host.Value{host.Number(1), host.String("Two"), host.Bool(true)}}}
	var b ir.Body
	list := func(op ir.Opcode, args ...ir.Operand) int {
		return b.Emit(ir.Instr{Op: op, List: 0, Args: args})
	}
	list(ir.OP_LIST_INSERT, ir.Num(1), ir.Str("a"))
	list(ir.OP_LIST_DELETE, ir.Num(4))
	list(ir.OP_LIST_REPLACE, ir.Num(2), ir.Str("b"))
	list(ir.OP_LIST_DELETE, ir.Num(9))
	write(&b, 0, ir.Ref(list(ir.OP_LIST_ITEM, ir.Num(3))))
	write(&b, 1, ir.Ref(list(ir.OP_LIST_ITEM, ir.Num(4))))
	write(&b, 2, ir.Ref(list(ir.OP_LIST_ITEM_INDEX, ir.Str("two"))))
	write(&b, 3, ir.Ref(list(ir.OP_LIST_CONTAINS, ir.Str("B"))))
	write(&b, 4, ir.Ref(list(ir.OP_LIST_LENGTH)))
	write(&b, 5, ir.Ref(list(ir.OP_LIST_CONTENTS)))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	script(t, mod, "main").Entry(NewEnv(proj.Stage, 1))

	// [a 1 Two true] -> delete 4 -> [a 1 Two] -> replace 2 -> [a b Two]
	want := map[string]host.Value{
		"item":     host.String("Two"),
		"missing":  host.String(""),
		"index":    host.Number(3),
		"has":      host.Bool(true),
		"length":   host.Number(3),
		"contents": host.String("a b Two"),
	}
	for id, w := range want {
		if got := stageVar(proj, id); !host.Equals(got, w) || got.Tag != w.Tag {
			t.Errorf("%s = %s, want %s", id, got.Inspect(), w.Inspect())
		}
	}
}

// TestNumberBoolComparisons checks every number and boolean pairing against
// the host. The number is n/d, so a NaN operand comes from 0/0.
func TestNumberBoolComparisons(t *testing.T) {
	p := program("n", "d", "b", "eq", "gt", "lt", "beq", "bgt", "blt")
	var b ir.Body
	num := b.Op(ir.OP_DIV, ir.Ref(read(&b, 0)), ir.Ref(read(&b, 1)))
	not := b.Op(ir.OP_NOT, ir.Ref(read(&b, 2)))
	boo := b.Op(ir.OP_NOT, ir.Ref(not))
	for k, op := range []ir.Opcode{ir.OP_EQ, ir.OP_GT, ir.OP_LT} {
		write(&b, 3+k, ir.Ref(b.Op(op, ir.Ref(num), ir.Ref(boo))))
		write(&b, 6+k, ir.Ref(b.Op(op, ir.Ref(boo), ir.Ref(num))))
	}
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")

	for _, n := range []float64{0, 1, -1, 0.5, 2, math.Inf(1), math.Inf(-1), math.NaN()} {
		for _, bv := range []bool{false, true} {
			if math.IsNaN(n) {
				proj.Stage.Variable("n").Value = host.Number(0)
				proj.Stage.Variable("d").Value = host.Number(0)
			} else {
				proj.Stage.Variable("n").Value = host.Number(n)
				proj.Stage.Variable("d").Value = host.Number(1)
			}
			proj.Stage.Variable("b").Value = host.Bool(bv)
			fn.Entry(NewEnv(proj.Stage, 1))

			c := host.Compare(host.Number(n), host.Bool(bv))
			want := map[string]bool{
				"eq": c == 0, "gt": c > 0, "lt": c < 0,
				"beq": c == 0, "bgt": c < 0, "blt": c > 0,
			}
			for id, w := range want {
				if got := stageVar(proj, id); got.Truth() != w {
					t.Errorf("n=%v b=%v: %s = %v, want %v", n, bv, id, got.Truth(), w)
				}
			}
		}
	}

	// NaN reads as text against a boolean but as a number against 1
	nanVsTrue := host.Compare(host.Number(math.NaN()), host.Bool(true))
	nanVsOne := host.Compare(host.Number(math.NaN()), host.Number(1))
	if nanVsTrue > 0 || nanVsOne <= 0 {
		t.Errorf("NaN ordering: vs true %d, vs 1 %d", nanVsTrue, nanVsOne)
	}
}

var castValues = []host.Value{
	host.Number(0), host.Number(math.Copysign(0, -1)), host.Number(-0.5), host.Number(1e21),
	host.Number(math.NaN()), host.Number(math.Inf(1)), host.Number(math.Inf(-1)),
	host.Bool(true), host.Bool(false),
	host.String("12"), host.String(" 3e2 "), host.String("0x10"), host.String("false"), host.String(""),
	host.String("NaN"), host.String("-0"), host.String("Infinity"), host.String("-infinity"),
}

// TestCastMatchesHost reads a variable of unknown type through operations
// that cast it to each kind.
func TestCastMatchesHost(t *testing.T) {
	p := program("v", "num", "str", "bool")
	var b ir.Body
	r := read(&b, 0)
	write(&b, 1, ir.Ref(b.Op(ir.OP_ADD, ir.Ref(r), ir.Num(0))))
	write(&b, 2, ir.Ref(b.Op(ir.OP_JOIN, ir.Ref(r), ir.Str(""))))
	write(&b, 3, ir.Ref(b.Op(ir.OP_AND, ir.Ref(r), ir.Bool(true))))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")

	for _, v := range castValues {
		proj.Stage.Variable("v").Value = v
		fn.Entry(NewEnv(proj.Stage, 1))

		// arithmetic reads NaN as 0, and x+0 is never -0
		if got, want := host.ToDouble(stageVar(proj, "num")), nz(host.ToDouble(v))+0; !sameNumber(got, want) {
			t.Errorf("number(%s) + 0 = %v, want %v", v.Inspect(), got, want)
		}
		if got, want := stageVar(proj, "str").Str(), host.ToString(v); got != want {
			t.Errorf("string(%s) = %q, want %q", v.Inspect(), got, want)
		}
		if got, want := stageVar(proj, "bool").Truth(), host.ToBool(v); got != want {
			t.Errorf("bool(%s) = %v, want %v", v.Inspect(), got, want)
		}
	}
}

// hostCast is the host's conversion of v to kind k
func hostCast(v host.Value, k Kind) host.Value {
	switch k {
	case KindNumber:
		return host.Number(host.ToDouble(v))
	case KindBool:
		return host.Bool(host.ToBool(v))
	default:
		return host.String(host.ToString(v))
	}
}

func sameValue(a, b host.Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case host.TagNumber:
		return sameNumber(a.Num(), b.Num())
	case host.TagBool:
		return a.Truth() == b.Truth()
	default:
		return a.Str() == b.Str()
	}
}

// castChain builds a function that starts from v held as a constant, a
// generic value or a specialized register of v's own kind, applies the
// casts in order and returns the result.
func castChain(start Variant, v host.Value, kinds []Kind) host.Value {
	p := program()
	proj := ir.NewProject(p)
	c := &Compiler{prog: p, project: proj, varBinds: map[int]varBinding{}, listBinds: map[int]listBinding{}}
	fn := &Function{Name: "cast", Mode: Warp}
	b := newBuilder(c, fn, nil, nil, &analyzer.Result{})
	b.pushScope()

	var h Handle
	switch start {
	case Constant:
		h = constHandle(v)
	case Generic:
		h = b.newVal()
		r := h.Reg
		b.emit("load", func(fr *Frame) { fr.vals[r] = v })
	default:
		h = b.newReg(kindOfTag(v.Tag))
		r := h.Reg
		switch h.Kind {
		case KindNumber:
			b.emit("load", func(fr *Frame) { fr.nums[r] = v.Num() })
		case KindBool:
			b.emit("load", func(fr *Frame) { fr.bools[r] = v.Truth() })
		default:
			b.emit("load", func(fr *Frame) { fr.strs[r] = v.Str() })
		}
	}
	for _, k := range kinds {
		h = b.cast(h, k)
	}

	var got host.Value
	get := b.valOf(h)
	b.emit("capture", func(fr *Frame) { got.Assign(get(fr)) })
	b.popScope()
	b.finish()
	fn.blocks = b.blocks
	fn.setup()

	fn.Entry(NewEnv(proj.Stage, 1))
	return got
}

func TestCastChains(t *testing.T) {
	kinds := []Kind{KindNumber, KindBool, KindString}
	var chains [][]Kind
	for _, k1 := range kinds {
		chains = append(chains, []Kind{k1})
		for _, k2 := range kinds {
			chains = append(chains, []Kind{k1, k2})
		}
	}

	starts := []struct {
		name    string
		variant Variant
	}{
		{"constant", Constant},
		{"generic", Generic},
		{"specialized", Specialized},
	}

	for _, start := range starts {
		for _, v := range castValues {
			for _, chain := range chains {
				want := v
				for _, k := range chain {
					want = hostCast(want, k)
				}
				if got := castChain(start.variant, v, chain); !sameValue(got, want) {
					t.Errorf("%s %s cast to %v = %s, want %s", start.name, v.Inspect(), chain, got.Inspect(), want.Inspect())
				}
			}
		}
	}
}

func TestResumeContract(t *testing.T) {
	p := program("x")
	var warp, susp ir.Body
	change(&warp, 0, ir.Num(1))
	change(&susp, 0, ir.Num(1))
	susp.Op(ir.OP_YIELD)
	change(&susp, 0, ir.Num(1))
	p.Scripts = []ir.Script{{Name: "warp", Body: warp}, {Name: "susp", Body: susp}}

	mod, proj := compile(t, p, Options{})
	env := NewEnv(proj.Stage, 1)

	w := script(t, mod, "warp")
	if fr := w.Entry(env); fr != nil || !w.Resume(fr) {
		t.Error("warp script should finish on entry and report finished on resume")
	}

	s := script(t, mod, "susp")
	fr := s.Entry(env)
	if fr == nil {
		t.Fatal("suspendable script finished on entry")
	}
	if got := host.ToDouble(stageVar(proj, "x")); got != 2 {
		t.Errorf("x = %v at the yield, want 2", got)
	}
	if !s.Resume(fr) {
		t.Error("script with one yield should finish on its first resume")
	}
	if got := host.ToDouble(stageVar(proj, "x")); got != 3 {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestForceWarp(t *testing.T) {
	p := program("x")
	var b ir.Body
	b.Op(ir.OP_REPEAT, ir.Num(3))
	change(&b, 0, ir.Num(1))
	b.Op(ir.OP_YIELD)
	b.Op(ir.OP_END_LOOP)
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{ForceWarp: true})
	fn := script(t, mod, "main")
	if fn.Mode != Warp {
		t.Fatalf("mode = %s", fn.Mode)
	}
	if fr := fn.Entry(NewEnv(proj.Stage, 1)); fr != nil {
		t.Fatal("forced warp script suspended")
	}
	if got := host.ToDouble(stageVar(proj, "x")); got != 3 {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestStopAndConditionalLoops(t *testing.T) {
	p := program("x", "y")
	var b ir.Body
	b.Op(ir.OP_LOOP)
	change(&b, 1, ir.Num(1))
	b.Op(ir.OP_LOOP_UNTIL, ir.Ref(b.Op(ir.OP_EQ, ir.Ref(read(&b, 1)), ir.Num(5))))
	b.Op(ir.OP_END_LOOP)

	b.Op(ir.OP_REPEAT, ir.Num(10))
	change(&b, 0, ir.Num(1))
	b.Op(ir.OP_IF, ir.Ref(b.Op(ir.OP_EQ, ir.Ref(read(&b, 0)), ir.Num(3))))
	b.Op(ir.OP_STOP)
	b.Op(ir.OP_END_IF)
	b.Op(ir.OP_END_LOOP)
	write(&b, 0, ir.Num(100))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	script(t, mod, "main").Entry(NewEnv(proj.Stage, 1))

	if got := host.ToDouble(stageVar(proj, "y")); got != 5 {
		t.Errorf("y = %v, want 5", got)
	}
	if got := host.ToDouble(stageVar(proj, "x")); got != 3 {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestIfElse(t *testing.T) {
	p := program("c", "x", "y")
	p.Variables[1].Init = host.String("start")
	var b ir.Body
	write(&b, 1, ir.Str("a"))
	b.Op(ir.OP_IF, ir.Ref(read(&b, 0)))
	write(&b, 1, ir.Ref(b.Op(ir.OP_JOIN, ir.Ref(read(&b, 1)), ir.Str("then"))))
	b.Op(ir.OP_ELSE)
	write(&b, 1, ir.Num(2))
	b.Op(ir.OP_END_IF)
	write(&b, 2, ir.Ref(read(&b, 1)))
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")

	tests := []struct {
		cond host.Value
		want host.Value
	}{
		{host.Bool(true), host.String("athen")},
		{host.String("false"), host.Number(2)},
		{host.Number(0), host.Number(2)},
	}
	for _, tt := range tests {
		proj.Stage.Variable("c").Value = tt.cond
		fn.Entry(NewEnv(proj.Stage, 1))
		if got := stageVar(proj, "y"); !host.Equals(got, tt.want) {
			t.Errorf("if %s: y = %s, want %s", tt.cond.Inspect(), got.Inspect(), tt.want.Inspect())
		}
	}
}

func TestProcedureCalls(t *testing.T) {
	p := program("x", "y")

	var bump ir.Body
	change(&bump, 0, ir.Ref(bump.Emit(ir.Instr{Op: ir.OP_ARG, Arg: 0})))

	var pause ir.Body
	change(&pause, 0, ir.Num(1))
	pause.Op(ir.OP_YIELD)
	change(&pause, 0, ir.Num(1))

	var drain ir.Body
	drain.Emit(ir.Instr{Op: ir.OP_CALL, Proc: 1})

	p.Procedures = []ir.Procedure{
		{Name: "bump", Params: []string{"by"}, Warp: true, Body: bump},
		{Name: "pause", Body: pause},
		{Name: "drain", Warp: true, Body: drain},
	}

	var inline ir.Body
	inline.Op(ir.OP_REPEAT, ir.Num(3))
	inline.Emit(ir.Instr{Op: ir.OP_CALL, Proc: 0, Args: []ir.Operand{ir.Num(2)}})
	inline.Op(ir.OP_END_LOOP)

	var waits ir.Body
	waits.Emit(ir.Instr{Op: ir.OP_CALL, Proc: 1})
	write(&waits, 1, ir.Ref(read(&waits, 0)))

	var drains ir.Body
	drains.Emit(ir.Instr{Op: ir.OP_CALL, Proc: 2})

	p.Scripts = []ir.Script{{Name: "inline", Body: inline}, {Name: "waits", Body: waits}, {Name: "drains", Body: drains}}

	mod, proj := compile(t, p, Options{})
	modes := map[string]Mode{"inline": Warp, "waits": Suspendable, "drains": Warp}
	for name, want := range modes {
		if got := script(t, mod, name).Mode; got != want {
			t.Errorf("%s mode = %s, want %s", name, got, want)
		}
	}
	x := proj.Stage.Variable("x")

	t.Run("warp callee", func(t *testing.T) {
		x.Value = host.Number(0)
		script(t, mod, "inline").Entry(NewEnv(proj.Stage, 1))
		if got := host.ToDouble(x.Value); got != 6 {
			t.Errorf("x = %v, want 6", got)
		}
	})

	t.Run("suspendable callee", func(t *testing.T) {
		x.Value = host.Number(0)
		fn := script(t, mod, "waits")
		fr := fn.Entry(NewEnv(proj.Stage, 1))
		if fr == nil {
			t.Fatal("caller finished while callee was suspended")
		}
		if got := host.ToDouble(x.Value); got != 1 {
			t.Errorf("x = %v at the callee's yield", got)
		}
		if !fn.Resume(fr) {
			t.Fatal("caller did not finish after the callee")
		}
		if got := host.ToDouble(stageVar(proj, "y")); got != 2 {
			t.Errorf("y = %v, want 2", got)
		}
	})

	t.Run("warp caller drains", func(t *testing.T) {
		x.Value = host.Number(0)
		if fr := script(t, mod, "drains").Entry(NewEnv(proj.Stage, 1)); fr != nil {
			t.Fatal("warp script suspended")
		}
		if got := host.ToDouble(x.Value); got != 2 {
			t.Errorf("x = %v, want 2", got)
		}
	})
}

func TestCloneBindings(t *testing.T) {
	p := program()
	p.Sprites = []ir.Sprite{{Name: "Cat", Cloneable: true}}
	p.Variables = []ir.Variable{{ID: "n", Name: "n", Owner: "Cat", Init: host.Number(1)}}
	var b ir.Body
	change(&b, 0, ir.Num(10))
	p.Scripts = []ir.Script{{Name: "main", Owner: "Cat", Body: b}}

	mod, proj := compile(t, p, Options{})
	fn := script(t, mod, "main")

	orig := proj.Sprite("Cat")
	clone, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	fn.Entry(NewEnv(clone, 1))

	if got := host.ToDouble(clone.Variable("n").Value); got != 11 {
		t.Errorf("clone n = %v, want 11", got)
	}
	if got := host.ToDouble(orig.Variable("n").Value); got != 1 {
		t.Errorf("original n = %v, want 1", got)
	}
}

// compileViolation compiles p and returns the contract violation it raised
func compileViolation(p *ir.Program) (ce *ContractError) {
	defer func() {
		ce, _ = recover().(*ContractError)
	}()
	Compile(p, ir.NewProject(p), Options{})
	return nil
}

func TestInstanceBindings(t *testing.T) {
	writeV := ir.Body{{Op: ir.OP_WRITE_VAR, Var: 0, Args: []ir.Operand{ir.Num(5)}}}
	call := func(k int) ir.Body { return ir.Body{{Op: ir.OP_CALL, Proc: k}} }
	procs := []ir.Procedure{
		{Name: "bump", Body: ir.Body{{Op: ir.OP_CHANGE_VAR, Var: 0, Args: []ir.Operand{ir.Num(1)}}}},
		{Name: "outer", Body: call(0)},
		{Name: "both", Body: ir.Body{
			{Op: ir.OP_CHANGE_VAR, Var: 0, Args: []ir.Operand{ir.Num(1)}},
			{Op: ir.OP_CHANGE_VAR, Var: 2, Args: []ir.Operand{ir.Num(1)}},
		}},
	}
	tests := []struct {
		name   string
		procs  []ir.Procedure
		script ir.Script
		fn     string
		instr  int
	}{
		{"variable of another sprite", nil, ir.Script{Name: "s", Owner: "B", Body: writeV}, "script s", 0},
		{"variable from the stage", nil, ir.Script{Name: "s", Body: writeV}, "script s", 0},
		{"list of another sprite", nil, ir.Script{Name: "s", Owner: "B", Body: ir.Body{{Op: ir.OP_LIST_LENGTH, List: 0}}}, "script s", 0},
		{"procedure of another sprite", procs[:1], ir.Script{Name: "s", Owner: "B", Body: call(0)}, "script s", 0},
		{"transitive procedure", procs[:2], ir.Script{Name: "s", Owner: "B", Body: call(1)}, "script s", 0},
		{"procedure on two sprites", procs, ir.Script{Name: "s", Owner: "A"}, "procedure both", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program()
			p.Sprites = []ir.Sprite{{Name: "A", Cloneable: true}, {Name: "B"}, {Name: "C", Cloneable: true}}
			p.Variables = []ir.Variable{
				{ID: "v", Name: "v", Owner: "A", Init: host.Number(0)},
				{ID: "w", Name: "w", Owner: "B", Init: host.Number(0)},
				{ID: "u", Name: "u", Owner: "C", Init: host.Number(0)},
			}
			p.Lists = []ir.List{{ID: "l", Name: "l", Owner: "A"}}
			p.Procedures = tt.procs
			p.Scripts = []ir.Script{tt.script}

			ce := compileViolation(p)
			if ce == nil {
				t.Fatal("expected a contract violation")
			}
			if ce.Function != tt.fn || ce.Instr != tt.instr {
				t.Errorf("contract error = %v", ce)
			}
		})
	}
}

func TestProcedureRunsOnCallerInstance(t *testing.T) {
	p := program()
	p.Sprites = []ir.Sprite{{Name: "A", Cloneable: true}}
	p.Variables = []ir.Variable{{ID: "v", Name: "v", Owner: "A", Init: host.Number(1)}}
	p.Procedures = []ir.Procedure{
		{Name: "bump", Body: ir.Body{{Op: ir.OP_CHANGE_VAR, Var: 0, Args: []ir.Operand{ir.Num(1)}}}},
		{Name: "outer", Body: ir.Body{{Op: ir.OP_CALL, Proc: 0}}},
	}
	p.Scripts = []ir.Script{{Name: "s", Owner: "A", Body: ir.Body{{Op: ir.OP_CALL, Proc: 1}}}}

	mod, proj := compile(t, p, Options{})
	if mod.Procedures[1].Owner != "A" {
		t.Errorf("outer owner = %q, want A", mod.Procedures[1].Owner)
	}

	orig := proj.Sprite("A")
	clone, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	script(t, mod, "s").Entry(NewEnv(clone, 1))

	if got := host.ToDouble(clone.Variable("v").Value); got != 2 {
		t.Errorf("clone v = %v, want 2", got)
	}
	if got := host.ToDouble(orig.Variable("v").Value); got != 1 {
		t.Errorf("original v = %v, want 1", got)
	}
}

func TestClassify(t *testing.T) {
	yield := ir.Body{{Op: ir.OP_YIELD}}
	call := func(k int) ir.Body { return ir.Body{{Op: ir.OP_CALL, Proc: k}} }

	p := &ir.Program{
		Procedures: []ir.Procedure{
			{Name: "yields", Body: yield},
			{Name: "warp yields", Warp: true, Body: yield},
			{Name: "calls yields", Body: call(0)},
			{Name: "calls caller", Body: call(2)},
			{Name: "calls warp", Body: call(1)},
		},
		Scripts: []ir.Script{
			{Name: "plain"},
			{Name: "transitive", Body: call(3)},
			{Name: "warp only", Body: call(4)},
		},
	}

	cl := Classify(p, false)
	wantProcs := []Mode{Suspendable, Warp, Suspendable, Suspendable, Warp}
	for i, want := range wantProcs {
		if cl.Procedures[i] != want {
			t.Errorf("procedure %q = %s, want %s", p.Procedures[i].Name, cl.Procedures[i], want)
		}
	}
	wantScripts := []Mode{Warp, Suspendable, Warp}
	for i, want := range wantScripts {
		if cl.Scripts[i] != want {
			t.Errorf("script %q = %s, want %s", p.Scripts[i].Name, cl.Scripts[i], want)
		}
	}

	forced := Classify(p, true)
	for i := range forced.Procedures {
		if forced.Procedures[i] != Warp {
			t.Errorf("forced procedure %d = %s", i, forced.Procedures[i])
		}
	}
}

func TestContractViolation(t *testing.T) {
	p := program("x")
	p.Scripts = []ir.Script{{Name: "main", Body: ir.Body{{Op: ir.OP_ADD, Args: []ir.Operand{ir.Num(1)}}}}}

	defer func() {
		ce, ok := recover().(*ContractError)
		if !ok {
			t.Fatalf("expected *ContractError panic")
		}
		if ce.Function != "script main" || ce.Instr != 0 {
			t.Errorf("contract error = %v", ce)
		}
	}()
	Compile(p, ir.NewProject(p), Options{})
}

func TestVerify(t *testing.T) {
	f := &Function{Name: "f", Mode: Warp, blocks: []block{
		{term: func(*Frame) int { return 5 }, succ: []int{5}},
		{suspends: true, term: func(*Frame) int { return termSuspend }},
		{},
	}}
	errs := verify(f, 1, []string{"x"})
	want := []string{"B002", "B003", "B001", "B004", "B005"}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	for i, w := range want {
		if got := errs[i].Error(); !strings.Contains(got, w) {
			t.Errorf("error %d = %q, want code %s", i, got, w)
		}
	}
}

func TestDisassemble(t *testing.T) {
	p := program("x")
	var b ir.Body
	b.Op(ir.OP_REPEAT, ir.Num(2))
	change(&b, 0, ir.Num(1))
	b.Op(ir.OP_END_LOOP)
	p.Scripts = []ir.Script{{Name: "main", Body: b}}

	mod, _ := compile(t, p, Options{})
	out := script(t, mod, "main").Disassemble()
	for _, want := range []string{"== script main (warp) ==", "block 0:", "return"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}
