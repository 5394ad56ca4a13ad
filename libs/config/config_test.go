package config

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("WAIT", "750ms")
	if got := Duration("WAIT", time.Second); got != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %s", got)
	}
	t.Setenv("WAIT", "3")
	if got := Duration("WAIT", time.Second); got != 3*time.Second {
		t.Fatalf("expected bare integers to be seconds, got %s", got)
	}
	t.Setenv("WAIT", "soon")
	if got := Duration("WAIT", time.Second); got != time.Second {
		t.Fatalf("expected fallback for invalid value, got %s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("CALLERS", " mbw_mia, ,mbw_avi ")
	got := List("CALLERS", "")
	if len(got) != 2 || got[0] != "mbw_mia" || got[1] != "mbw_avi" {
		t.Fatalf("unexpected list: %#v", got)
	}

	t.Setenv("CALLERS", "")
	if got := List("CALLERS", "a,b"); len(got) != 2 {
		t.Fatalf("expected fallback list, got %#v", got)
	}
}

func TestIntAndPort(t *testing.T) {
	t.Setenv("ATTEMPTS", "-2")
	if got := Int("ATTEMPTS", 3); got != 3 {
		t.Fatalf("expected fallback for non-positive value, got %d", got)
	}
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "8080"); err == nil {
		t.Fatalf("expected out of range port to fail")
	}
}

func TestBool(t *testing.T) {
	t.Setenv("SECURE", "yes")
	if !Bool("SECURE", false) {
		t.Fatalf("expected yes to be truthy")
	}
	t.Setenv("SECURE", "")
	if !Bool("SECURE", true) {
		t.Fatalf("expected fallback when unset")
	}
}
