package evaluator

import (
	"errors"
	"io"
	"strings"
	"testing"

	mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
	"github.com/msto63/ct4pwd/foundation/vpl/ast"
)

func quietLogger() *mdwlog.Logger {
	return mdwlog.NewWithConfig(mdwlog.Config{Output: io.Discard})
}

func newTestEvaluator(opts Options) *Evaluator {
	opts.Logger = quietLogger()
	return New(opts)
}

func table(values map[string]bool) ConditionResolver {
	return ResolverFunc(func(label string, _ State) (bool, bool) {
		v, ok := values[label]
		return v, ok
	})
}

func seq(nodes ...ast.Node) *ast.Sequence { return ast.NewSequence(nodes...) }
func move(v ast.Vector) *ast.Direction     { return &ast.Direction{Vector: v, Source: -1} }
func action(l string) *ast.Action          { return &ast.Action{Label: l, Source: -1} }

func TestRoundTripScenario(t *testing.T) {
	prog := seq(move(ast.Up), move(ast.Right), move(ast.Down), move(ast.Left))
	res, err := newTestEvaluator(Options{}).Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := res.Trace.String(), "[[0, -1], [1, 0], [0, 1], [-1, 0]]"; got != want {
		t.Errorf("trace = %s, want %s", got, want)
	}
	if res.Final != (State{X: 0, Y: 0, Steps: 4}) {
		t.Errorf("final state = %+v", res.Final)
	}
	if res.Verdict != nil {
		t.Error("trace mode must not produce a verdict")
	}
}

func TestLoopScenario(t *testing.T) {
	prog := seq(&ast.Loop{Count: 3, Body: seq(move(ast.Right))})
	res, err := newTestEvaluator(Options{}).Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Trace.String(); got != "[[1, 0], [1, 0], [1, 0]]" {
		t.Errorf("trace = %s", got)
	}
	if res.Final.X != 3 {
		t.Errorf("final X = %d, want 3", res.Final.X)
	}
}

func TestLoopUnrolling(t *testing.T) {
	body := seq(move(ast.Up), action("jump"))
	bodyRes, err := newTestEvaluator(Options{}).Evaluate(body, TraceMode())
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{0, 1, 5} {
		res, err := newTestEvaluator(Options{}).Evaluate(seq(&ast.Loop{Count: n, Body: body}), TraceMode())
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		var want Trace
		for i := 0; i < n; i++ {
			want = append(want, bodyRes.Trace...)
		}
		if !res.Trace.Equal(want) {
			t.Errorf("n=%d: trace = %s, want %s", n, res.Trace, want)
		}
	}
}

func TestLoopReevaluatesBodyEachIteration(t *testing.T) {
	// the condition depends on the cursor, so a cached body would repeat
	// the first iteration's branch
	resolver := ResolverFunc(func(label string, s State) (bool, bool) {
		return s.X < 2, label == "before_wall"
	})
	prog := seq(&ast.Loop{Count: 4, Body: seq(&ast.Conditional{
		Condition: "before_wall",
		Then:      seq(move(ast.Right)),
		Else:      seq(action("bump")),
	})})

	res, err := newTestEvaluator(Options{Conditions: resolver}).Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Trace.String(); got != "[[1, 0], [1, 0], 'bump', 'bump']" {
		t.Errorf("trace = %s", got)
	}
}

func TestConditionalWithoutElse(t *testing.T) {
	cond := &ast.Conditional{Condition: "open", Then: seq(action("enter"))}
	prog := seq(move(ast.Up), cond, move(ast.Down))
	without := seq(move(ast.Up), move(ast.Down))

	ev := newTestEvaluator(Options{Conditions: table(map[string]bool{"open": false})})
	got, err := ev.Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	want, _ := ev.Evaluate(without, TraceMode())
	if !got.Trace.Equal(want.Trace) {
		t.Errorf("trace = %s, want %s", got.Trace, want.Trace)
	}

	ev = newTestEvaluator(Options{Conditions: table(map[string]bool{"open": true})})
	got, _ = ev.Evaluate(prog, TraceMode())
	if got.Trace.String() != "[[0, -1], 'enter', [0, 1]]" {
		t.Errorf("true branch trace = %s", got.Trace)
	}
}

func TestDefaultConditionsTakeThenBranch(t *testing.T) {
	prog := seq(&ast.Conditional{Condition: "anything", Then: seq(action("a")), Else: seq(action("b"))})
	res, err := newTestEvaluator(Options{}).Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	if res.Trace.String() != "['a']" {
		t.Errorf("trace = %s, want ['a']", res.Trace)
	}
}

func TestVerifyScenario(t *testing.T) {
	prog := seq(move(ast.Up))
	ev := newTestEvaluator(Options{})

	res, err := ev.Evaluate(prog, VerifyMode(Trace{Move(ast.Up)}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Verdict.Correct {
		t.Errorf("verdict = %+v, want correct", res.Verdict)
	}
	if res.Verdict.Text() != "[[0, -1]]" {
		t.Errorf("Text() = %q", res.Verdict.Text())
	}

	res, err = ev.Evaluate(prog, VerifyMode(Trace{Move(ast.Down)}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict.Correct {
		t.Error("verdict should be incorrect")
	}
	if !strings.HasPrefix(res.Verdict.Message, IncorrectPrefix) {
		t.Errorf("message %q lacks incorrect prefix", res.Verdict.Message)
	}
	if want := "step 1: expected [0, 1], got [0, -1]"; res.Verdict.Text() != want {
		t.Errorf("Text() = %q, want %q", res.Verdict.Text(), want)
	}
}

func TestVerifyLengthMismatch(t *testing.T) {
	tests := []struct {
		name     string
		expected Trace
		want     string
	}{
		{
			name:     "missing step",
			expected: Trace{Move(ast.Up), Act("jump")},
			want:     "expected 2 steps, got 1; step 2 should be 'jump'",
		},
		{
			name:     "extra step",
			expected: Trace{},
			want:     "expected 0 steps, got 1; unexpected step 1: [0, -1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEvaluator(Options{}).Evaluate(seq(move(ast.Up)), VerifyMode(tt.expected))
			if err != nil {
				t.Fatal(err)
			}
			if res.Verdict.Correct || res.Verdict.Text() != tt.want {
				t.Errorf("verdict = %+v, want %q", res.Verdict, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		prog ast.Node
		want error
	}{
		{
			name: "unknown condition",
			opts: Options{Conditions: table(map[string]bool{"known": true})},
			prog: seq(&ast.Conditional{Condition: "mystery", Then: seq(action("x")), Source: 4}),
			want: ErrUnknownCondition,
		},
		{
			name: "loop count above ceiling",
			opts: Options{MaxLoopCount: 10},
			prog: seq(&ast.Loop{Count: 11, Body: seq(move(ast.Up)), Source: 4}),
			want: ErrLoopCountExceeded,
		},
		{
			name: "nested loops exceed trace limit",
			opts: Options{MaxTraceLength: 51},
			prog: seq(&ast.Loop{Count: 10, Body: seq(&ast.Loop{Count: 10, Body: seq(move(ast.Up), &ast.Action{Label: "x", Source: 4})})}),
			want: ErrTraceLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEvaluator(tt.opts).Evaluate(tt.prog, TraceMode())
			if res != nil {
				t.Error("Evaluate() must not return a result on failure")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Evaluate() error = %v, want %v", err, tt.want)
			}
			var eerr *Error
			if errors.As(err, &eerr) && eerr.Row != 4 {
				t.Errorf("error row = %d, want 4", eerr.Row)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	prog := seq(
		&ast.Loop{Count: 2, Body: seq(move(ast.Right), &ast.Conditional{Condition: "c", Then: seq(action("a"))})},
		move(ast.Left),
	)
	ev := newTestEvaluator(Options{})
	first, err := ev.Evaluate(prog, TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, _ := ev.Evaluate(prog, TraceMode())
		if again.Trace.String() != first.Trace.String() {
			t.Fatalf("run %d: %s != %s", i, again.Trace, first.Trace)
		}
	}
}

func TestEmptyProgram(t *testing.T) {
	res, err := newTestEvaluator(Options{}).Evaluate(seq(), TraceMode())
	if err != nil {
		t.Fatal(err)
	}
	if res.Trace == nil || res.Trace.String() != "[]" {
		t.Errorf("trace = %#v", res.Trace)
	}
}
