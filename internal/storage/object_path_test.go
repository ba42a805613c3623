package storage

import (
	"strings"
	"testing"
)

func TestBuildObjectPathShape(t *testing.T) {
	key := buildObjectPath("Generations", "Hello World", "PNG")
	if !strings.HasPrefix(key, "generations/") {
		t.Fatalf("expected category prefix, got %q", key)
	}
	if !strings.HasSuffix(key, "/hello-world.png") {
		t.Fatalf("expected sanitised base name and extension, got %q", key)
	}
	// category/yyyy/mm/dd/name.ext
	if got := len(strings.Split(key, "/")); got != 5 {
		t.Fatalf("expected 5 path segments, got %d in %q", got, key)
	}
}

func TestBuildObjectPathGeneratesBaseName(t *testing.T) {
	first := buildObjectPath("generations", "", "png")
	second := buildObjectPath("generations", "", "png")
	if first == second {
		t.Fatalf("expected unique generated names, got %q twice", first)
	}
}

func TestJoinPrefix(t *testing.T) {
	if got := joinPrefix(" /uploads/ ", "/a/b.png"); got != "uploads/a/b.png" {
		t.Fatalf("unexpected join result: %q", got)
	}
	if got := joinPrefix("", "a/b.png"); got != "a/b.png" {
		t.Fatalf("unexpected join result without prefix: %q", got)
	}
}
