package spin

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	cases := []struct {
		in      Spin
		want    Spin
		wantErr error
	}{
		{NEUTRAL, UP, nil},
		{UP, DOWN, nil},
		{DOWN, DOWN, ErrTerminal},
	}
	for _, c := range cases {
		got, err := Next(c.in)
		if got != c.want {
			t.Errorf("Next(%v) = %v, want %v", c.in, got, c.want)
		}
		if !errors.Is(err, c.wantErr) && err != c.wantErr {
			t.Errorf("Next(%v) err = %v, want %v", c.in, err, c.wantErr)
		}
	}
}

func TestSpinMonotonicitySequence(t *testing.T) {
	s := NEUTRAL
	seen := []Spin{s}
	for i := 0; i < 2; i++ {
		next, err := Next(s)
		if err != nil {
			t.Fatalf("unexpected error progressing from %v: %v", s, err)
		}
		s = next
		seen = append(seen, s)
	}
	want := []Spin{NEUTRAL, UP, DOWN}
	for i, w := range want {
		if seen[i] != w {
			t.Fatalf("sequence[%d] = %v, want %v", i, seen[i], w)
		}
	}
	if _, err := Next(s); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal after DOWN, got %v", err)
	}
}
