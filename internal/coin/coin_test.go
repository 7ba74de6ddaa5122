package coin

import "testing"

func TestFromBit(t *testing.T) {
	if got := FromBit(0); got != Heads {
		t.Fatalf("expected Heads for 0, got %v", got)
	}
	if got := FromBit(1); got != Tails {
		t.Fatalf("expected Tails for 1, got %v", got)
	}
}

func TestOutcomeLabelIgnoresProbability(t *testing.T) {
	o := Outcome{Bit: 1, ProbabilityOfZero: 0.99}
	if o.Label() != Tails {
		t.Fatalf("expected label from bit, got %v", o.Label())
	}
}

func TestLabelString(t *testing.T) {
	if Heads.String() != "Heads" || Tails.String() != "Tails" {
		t.Fatalf("unexpected label strings: %s %s", Heads, Tails)
	}
	if Heads.Short() != "H" || Tails.Short() != "T" {
		t.Fatalf("unexpected short labels")
	}
}
