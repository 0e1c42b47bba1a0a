package tasks

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zayatsoff/spm/internal/shared"
	testhelpers "github.com/zayatsoff/spm/internal/testing"
)

func newDemoExportEngine(t *testing.T) *Engine {
	t.Helper()

	engine := NewEngine(EngineOpts{
		Gateway: &testhelpers.FakeGateway{},
		Mode:    Demo,
		Logger:  shared.NewLogger(io.Discard),
	})

	if err := engine.LoadPlaylists(context.Background(), nil); err != nil {
		t.Fatalf("failed to load playlists: %v", err)
	}

	return engine
}

func TestEngineExport(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one JSON file per playlist plus a manifest", func(t *testing.T) {
		engine := newDemoExportEngine(t)
		dir := t.TempDir()

		result, err := engine.Export(ctx, nil, []string{"sample-top-hits", "sample-rapcaviar"}, ExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		if result.SuccessfulExports != 2 || result.FailedExports != 0 {
			t.Errorf("expected 2 successful exports, got %d success %d failed",
				result.SuccessfulExports, result.FailedExports)
		}

		testhelpers.AssertFileExists(t, filepath.Join(dir, "sample-top-hits.json"))
		testhelpers.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		data := testhelpers.MustReadFile(t, filepath.Join(dir, "sample-top-hits.json"))
		var export struct {
			Playlist struct {
				Name string `json:"name"`
			} `json:"playlist"`
			Tracks []struct {
				Name string `json:"name"`
			} `json:"tracks"`
		}
		if err := json.Unmarshal([]byte(data), &export); err != nil {
			t.Fatalf("export file is not valid JSON: %v", err)
		}
		if export.Playlist.Name != "Today's Top Hits" {
			t.Errorf("expected playlist name in export, got %q", export.Playlist.Name)
		}
		if len(export.Tracks) != 6 {
			t.Errorf("expected 6 tracks in export, got %d", len(export.Tracks))
		}
	})

	t.Run("csv format writes a track table and metadata", func(t *testing.T) {
		engine := newDemoExportEngine(t)
		dir := t.TempDir()

		result, err := engine.Export(ctx, nil, []string{"sample-rock-classics"}, ExportOpts{
			Format:    "csv",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if result.SuccessfulExports != 1 {
			t.Fatalf("expected 1 successful export, got %d", result.SuccessfulExports)
		}

		testhelpers.AssertFileExists(t, filepath.Join(dir, "sample-rock-classics_tracks.csv"))
		testhelpers.AssertFileExists(t, filepath.Join(dir, "sample-rock-classics_metadata.json"))

		csvData := string(testhelpers.MustReadFile(t, filepath.Join(dir, "sample-rock-classics_tracks.csv")))
		if !strings.Contains(csvData, "Back in Black") {
			t.Error("expected track row in CSV output")
		}
	})

	t.Run("unknown playlist id is reported, not fatal", func(t *testing.T) {
		engine := newDemoExportEngine(t)
		dir := t.TempDir()

		result, err := engine.Export(ctx, nil, []string{"sample-top-hits", "no-such-playlist"}, ExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		if result.SuccessfulExports != 1 || result.FailedExports != 1 {
			t.Errorf("expected 1 success and 1 failure, got %d/%d",
				result.SuccessfulExports, result.FailedExports)
		}

		failed := 0
		for _, r := range result.Results {
			if !r.Success {
				failed++
				if r.PlaylistID != "no-such-playlist" {
					t.Errorf("expected the unknown id to fail, got %q", r.PlaylistID)
				}
			}
		}
		if failed != 1 {
			t.Errorf("expected exactly one failed result, got %d", failed)
		}
	})

	t.Run("empty id list is refused", func(t *testing.T) {
		engine := newDemoExportEngine(t)

		if _, err := engine.Export(ctx, nil, nil, ExportOpts{Format: "json", OutputDir: t.TempDir()}); err == nil {
			t.Error("expected an error for an empty id list")
		}
	})

	t.Run("defaults create the output directory", func(t *testing.T) {
		engine := newDemoExportEngine(t)

		base := t.TempDir()
		cwd := testhelpers.MustGetwd(t)
		if err := os.Chdir(base); err != nil {
			t.Fatalf("failed to enter temp dir: %v", err)
		}
		t.Cleanup(func() { os.Chdir(cwd) })

		result, err := engine.Export(ctx, nil, []string{"sample-lofi-beats"}, ExportOpts{Format: "json"})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		testhelpers.AssertDirExists(t, result.OutputDirectory)
	})
}
