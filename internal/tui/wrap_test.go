package tui

import (
	"reflect"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksOnSpaces(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapTextKeepsParagraphs(t *testing.T) {
	got := wrapText("a b\n\nc", 10)
	want := []string{"a b", "", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("superposition", 5)
	want := []string{"super", "posit", "ion"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapTextRespectsDisplayWidth(t *testing.T) {
	for _, line := range wrapText("measure |0⟩ or |1⟩ with probability ½ each", 12) {
		if w := runewidth.StringWidth(line); w > 12 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
}

func TestWrapTextNoWidth(t *testing.T) {
	got := wrapText("unchanged text", 0)
	if len(got) != 1 || got[0] != "unchanged text" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
