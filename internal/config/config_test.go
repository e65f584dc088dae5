package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"voxelstream/internal/storage"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxelstream.yaml")
	raw := `
streaming:
  chunk_loading_range: 6
  min_chunk_distance_to_unload: 9
generation:
  seed: 99
  cave_radii: [3]
log:
  verbose: true
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Streaming.ChunkLoadingRange = 6
	want.Streaming.MinChunkDistanceToUnload = 9
	want.Generation.Seed = 99
	want.Generation.CaveRadii = []int{3}
	want.Log.Verbose = true
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("streaming: [1, 2"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Fatal("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("streaming:\n  max_world_height: 100\n"), 0o644)
	_, err := Load(invalid)
	if err == nil || !strings.Contains(err.Error(), "max_world_height") {
		t.Fatalf("expected world height error, got %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	c := Default()
	c.Streaming.MinChunkDistanceToUnload = 1
	c.Render.MaxChunksUpdatedOnDrawPerFrame = 0
	c.Generation.CaveRadii = []int{0, 40}
	err := c.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"min_chunk_distance_to_unload", "max_chunks_updated_on_draw_per_frame", "cave radius 0", "cave radius 40"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestWorldHeightFollowsChunkSize(t *testing.T) {
	c := Default()
	c.Streaming.MaxWorldHeight = 8 * storage.Height
	if err := c.Validate(); err != nil {
		t.Fatalf("multiple of the chunk height rejected: %v", err)
	}
	c.Streaming.MaxWorldHeight = 8*storage.Height + 1
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "max_world_height") {
		t.Fatalf("err = %v", err)
	}
}

func TestCavesDisabledSkipsWormChecks(t *testing.T) {
	c := Default()
	c.Generation.Caves = false
	c.Generation.CaveRadii = nil
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenderDistanceClamps(t *testing.T) {
	d := NewRenderDistance(12, 2, 16)
	if d.Get() != 12 {
		t.Fatalf("Get = %d", d.Get())
	}
	if got := d.Adjust(10); got != 16 {
		t.Fatalf("Adjust up = %d, want 16", got)
	}
	d.Set(-5)
	if d.Get() != 2 {
		t.Fatalf("Set(-5) = %d, want 2", d.Get())
	}
}
