package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/stream"
)

func TestJobOutputPaths_NumbersCollidingBasenames(t *testing.T) {
	sources := stream.Sources([]string{
		filepath.Join("a", "data.log"),
		filepath.Join("b", "data.log"),
		"notes",
		filepath.Join("c", "data.log"),
	})

	got := jobOutputPaths(sources, "out")

	want := []string{
		filepath.Join("out", "data.log"),
		filepath.Join("out", "data-2.log"),
		filepath.Join("out", "notes"),
		filepath.Join("out", "data-3.log"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d paths, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJobOutputPaths_NilWithoutOutDir(t *testing.T) {
	if got := jobOutputPaths(stream.Sources([]string{"a", "b"}), ""); got != nil {
		t.Errorf("paths = %v, want nil when records are discarded", got)
	}
}

func TestJobOutput_CollidingSourcesKeepTheirRecords(t *testing.T) {
	dir := t.TempDir()
	sources := stream.Sources([]string{
		filepath.Join("a", "data.log"),
		filepath.Join("b", "data.log"),
	})
	paths := jobOutputPaths(sources, dir)
	if paths[0] == paths[1] {
		t.Fatalf("both sources mapped to %q", paths[0])
	}

	records := []string{"record from source A\n", "record from source B\n"}
	for i, rec := range records {
		w, closeOut, err := jobOutput(paths[i])
		if err != nil {
			t.Fatalf("jobOutput(%s): %v", paths[i], err)
		}
		if _, err := io.WriteString(w, rec); err != nil {
			t.Fatal(err)
		}
		if err := closeOut(); err != nil {
			t.Fatal(err)
		}
	}

	for i, rec := range records {
		got, err := os.ReadFile(paths[i])
		if err != nil {
			t.Fatalf("reading output %d: %v", i, err)
		}
		if string(got) != rec {
			t.Errorf("output %d = %q, want %q", i, got, rec)
		}
	}
}

func TestJobOutput_DiscardsWithoutPath(t *testing.T) {
	w, closeOut, err := jobOutput("")
	if err != nil {
		t.Fatalf("jobOutput: %v", err)
	}
	if w != io.Discard {
		t.Errorf("writer = %T, want io.Discard", w)
	}
	if err := closeOut(); err != nil {
		t.Errorf("close: %v", err)
	}
}
