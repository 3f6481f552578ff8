package catalog

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindWalksRecursivelyAndFiltersExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp4"))
	touch(t, filepath.Join(root, "b.MOV"))
	touch(t, filepath.Join(root, "nested", "deep", "c.mkv"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "cover.jpg"))

	cat, err := Find(zerolog.Nop(), []string{root}, []string{"mp4", ".mov", "mkv"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("found %d files, want 3 (case-insensitive, recursive)", cat.Len())
	}
}

func TestFindMergesMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	touch(t, filepath.Join(rootA, "a.mp4"))
	touch(t, filepath.Join(rootB, "b.mp4"))

	cat, err := Find(zerolog.Nop(), []string{rootA, rootB}, []string{"mp4"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("found %d files, want one from each root", cat.Len())
	}
}

func TestFindSkipsMissingRoot(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp4"))

	cat, err := Find(zerolog.Nop(), []string{filepath.Join(root, "does-not-exist"), root}, []string{"mp4"})
	if err != nil {
		t.Fatalf("missing roots should be skipped, not fatal: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("found %d files, want 1", cat.Len())
	}
}

func TestFindEmptyResultIsError(t *testing.T) {
	if _, err := Find(zerolog.Nop(), []string{t.TempDir()}, []string{"mp4"}); err == nil {
		t.Fatal("an empty catalog must be an error")
	}
}

func TestPickCoversAllSources(t *testing.T) {
	cat := FromPaths([]string{"a.mp4", "b.mp4", "c.mp4"})
	rng := rand.New(rand.NewSource(3))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[cat.Pick(rng)] = true
	}
	if len(seen) != cat.Len() {
		t.Errorf("200 picks covered %d of %d sources", len(seen), cat.Len())
	}
}
