package testset

import "testing"

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		`all()`,
		`all() | none()`,
		`all() & none() & skip()`,
		`all() | (none() & skip())`,
		`!all()`,
	}

	for _, src := range cases {
		expr, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}

		printed := String(expr)
		reparsed, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(String(%q)) = %q: %v", src, printed, err)
		}

		if String(reparsed) != printed {
			t.Errorf("round trip unstable: %q -> %q -> %q", src, printed, String(reparsed))
		}
	}
}

func TestSimplifyDoubleNegation(t *testing.T) {
	t.Parallel()

	expr, err := Parse("!!all()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if String(expr) != "all()" {
		t.Errorf("got %q, want %q", String(expr), "all()")
	}
}

func TestSimplifyDiffOfNot(t *testing.T) {
	t.Parallel()

	expr, err := Parse("all() ~ !skip()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if String(expr) != "all() & skip()" {
		t.Errorf("got %q, want %q", String(expr), "all() & skip()")
	}
}

func TestSimplifyIntersectOfNot(t *testing.T) {
	t.Parallel()

	expr, err := Parse("all() & !skip()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if String(expr) != "all() ~ skip()" {
		t.Errorf("got %q, want %q", String(expr), "all() ~ skip()")
	}
}

func TestPrintMinimalParens(t *testing.T) {
	t.Parallel()

	expr := Binary{Op: OpUnion, Left: Ident{Name: "a"}, Right: Binary{Op: OpIntersect, Left: Ident{Name: "b"}, Right: Ident{Name: "c"}}}
	if got := String(expr); got != "a | b & c" {
		t.Errorf("got %q", got)
	}
}

func TestPrintParensWhenNeeded(t *testing.T) {
	t.Parallel()

	expr := Binary{
		Op:    OpIntersect,
		Left:  Binary{Op: OpUnion, Left: Ident{Name: "a"}, Right: Ident{Name: "b"}},
		Right: Ident{Name: "c"},
	}
	if got := String(expr); got != "(a | b) & c" {
		t.Errorf("got %q", got)
	}
}
