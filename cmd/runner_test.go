package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nixflix/internal/formatter"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/repositories"
	"github.com/desertthunder/nixflix/internal/shared"
	tu "github.com/desertthunder/nixflix/internal/testing"
	"gopkg.in/masci/flickr.v3"
)

var (
	older = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	dest    *tu.FakeDestination
	src     *tu.FakeSource
	frames  *tu.FakeFrames
	journal *repositories.SyncRunRepository
	config  string
	photos  []models.Photo
}

// newFixture builds a runner over fakes: "My Playlist" with 5 old items, last touched before the 65 photo
// "Favs" album was.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := shared.CreateConfigFile(configPath); err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	f := &fixture{
		output:  &bytes.Buffer{},
		dest:    tu.NewFakeDestination(),
		src:     tu.NewFakeSource(),
		frames:  &tu.FakeFrames{Settings: map[string]models.FrameSettings{}},
		journal: repositories.NewSyncRunRepository(db),
		config:  configPath,
		photos:  tu.MakePhotos(65),
	}
	f.dest.AddPlaylist("My Playlist", older, 5)
	f.src.AddAlbum("Favs", newer, f.photos)

	f.runner = NewRunner(RunnerOpts{
		Destination: f.dest,
		Source:      f.src,
		Frames:      f.frames,
		Journal:     f.journal,
		Logger:      shared.NewLogger(io.Discard),
		Output:      f.output,
	})
	return f
}

func (f *fixture) run(ctx context.Context, args ...string) error {
	argv := append([]string{"nixflix", "--config", f.config}, args...)
	return rootCommand(f.runner).Run(ctx, argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			dest := tu.NewFakeDestination()
			src := tu.NewFakeSource()
			frames := &tu.FakeFrames{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				ConfigPath:  "custom.toml",
				Logger:      logger,
				Destination: dest,
				Source:      src,
				Frames:      frames,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.destination != dest || runner.source != src || runner.frames != frames {
				t.Error("expected services to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to stdin")
			}
			if runner.openBrowser == nil {
				t.Error("expected browser opener to be set")
			}
			if runner.journal != nil {
				t.Error("expected journal to be opened lazily")
			}
		})

		t.Run("Close without a database", func(t *testing.T) {
			if err := NewRunner(RunnerOpts{}).Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds the line with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done %d", 3); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "\ndone 3\n" {
				t.Errorf("expected %q, got %q", "\ndone 3\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("stops at the first failed write", func(t *testing.T) {
			target := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, target)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writePlain("first"); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			if err := runner.writePlain("second"); err == nil {
				t.Error("expected second write to fail")
			}
			if target.String() != "first" {
				t.Errorf("expected only the first write, got %q", target.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var names []string
		for _, cmd := range runner.register() {
			names = append(names, cmd.Name)
		}

		for _, want := range []string{"sync", "status", "start", "playlists", "album", "history", "setup", "auth", "watch"} {
			if !slices.Contains(names, want) {
				t.Errorf("expected %s command to be registered, got %v", want, names)
			}
		}
	})
}

func TestConfigure(t *testing.T) {
	t.Run("missing explicit config file", func(t *testing.T) {
		f := newFixture(t)
		f.config = filepath.Join(t.TempDir(), "missing.toml")

		err := f.run(context.Background(), "playlists")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(context.Background(),
			"-p", "Other", "-a", "Trips", "--frame", "Kitchen", "--batch-size", "10", "--poll", "60", "--db", "", "playlists")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sync := f.runner.config.Sync
		if sync.Playlist != "Other" || sync.Album != "Trips" || sync.Frame != "Kitchen" {
			t.Errorf("unexpected sync pair: %+v", sync)
		}
		if sync.BatchSize != 10 || sync.PollInterval != 60 {
			t.Errorf("unexpected numbers: %+v", sync)
		}
		if f.runner.config.Database.Path != "" {
			t.Errorf("expected --db to clear the journal path, got %q", f.runner.config.Database.Path)
		}
	})

	t.Run("environment credentials", func(t *testing.T) {
		t.Setenv("NIXPLAY_USERNAME", "env-user")
		t.Setenv("FLICKR_API_KEY", "env-key")
		f := newFixture(t)

		if err := f.run(context.Background(), "playlists"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		creds := f.runner.config.Credentials
		if creds.Nixplay.Username != "env-user" {
			t.Errorf("expected username from env, got %q", creds.Nixplay.Username)
		}
		if creds.Flickr.APIKey != "env-key" {
			t.Errorf("expected api key from env, got %q", creds.Flickr.APIKey)
		}
	})

	t.Run("batch size above the API limit", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(context.Background(), "--batch-size", "31", "sync")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if f.dest.Calls["get_playlists"] != 0 {
			t.Error("expected no remote calls before validation passes")
		}
	})

	t.Run("listen address", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "--listen", "127.0.0.1:9090", "playlists"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr := f.runner.config.Server.Addr(); addr != "127.0.0.1:9090" {
			t.Errorf("expected server addr 127.0.0.1:9090, got %q", addr)
		}
	})
}

func TestSplitListen(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "host and port", addr: "127.0.0.1:8080", wantHost: "127.0.0.1", wantPort: 8080},
		{name: "all interfaces", addr: ":9000", wantHost: "", wantPort: 9000},
		{name: "missing port", addr: "localhost", wantErr: true},
		{name: "named port", addr: "localhost:http", wantErr: true},
		{name: "zero port", addr: "localhost:0", wantErr: true},
		{name: "port out of range", addr: "localhost:70000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := splitListen(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("expected %s:%d, got %s:%d", tt.wantHost, tt.wantPort, host, port)
			}
		})
	}
}

func TestSync(t *testing.T) {
	t.Run("replaces a stale playlist", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "-p", "My Playlist", "-a", "Favs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := f.dest.PhotoURLs("pl-1"), tu.PhotoURLs(f.photos); !slices.Equal(got, want) {
			t.Errorf("playlist does not match album:\ngot  %v\nwant %v", got, want)
		}

		out := f.output.String()
		if !strings.Contains(out, "My Playlist <- Favs: synced 65 photos in 3 calls") {
			t.Errorf("expected sync summary, got %q", out)
		}
		if !strings.Contains(out, "📤") {
			t.Errorf("expected insert progress, got %q", out)
		}

		run, err := f.journal.Latest("My Playlist", "Favs")
		if err != nil {
			t.Fatalf("expected a journalled run, got %v", err)
		}
		if run.Outcome != models.OutcomeSynced || run.ItemsInserted != 65 || run.ItemsDeleted != 5 {
			t.Errorf("unexpected journalled run: %+v", run)
		}
	})

	t.Run("second run is up to date", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		if err := f.run(ctx, "sync", "-p", "My Playlist", "-a", "Favs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inserts := f.dest.Calls["insert_items"]
		f.output.Reset()

		if err := f.run(ctx, "sync", "-p", "My Playlist", "-a", "Favs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.dest.Calls["insert_items"] != inserts {
			t.Error("expected no inserts on the second run")
		}
		if !strings.Contains(f.output.String(), "nothing to do") {
			t.Errorf("expected up to date summary, got %q", f.output.String())
		}
	})

	t.Run("force replaces a fresh playlist", func(t *testing.T) {
		f := newFixture(t)
		f.dest.AddPlaylist("Fresh", newer.Add(time.Hour), 2)

		if err := f.run(context.Background(), "-p", "Fresh", "-a", "Favs", "--force"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(f.dest.PhotoURLs("pl-2")); got != 65 {
			t.Errorf("expected 65 items after a forced sync, got %d", got)
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(context.Background(), "-p", "Nope", "-a", "Favs")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if !strings.Contains(f.output.String(), "failed") {
			t.Errorf("expected failure summary, got %q", f.output.String())
		}

		run, err := f.journal.Latest("Nope", "Favs")
		if err != nil {
			t.Fatalf("expected the failure to be journalled, got %v", err)
		}
		if run.Outcome != models.OutcomeFailed {
			t.Errorf("expected failed outcome, got %s", run.Outcome)
		}
	})

	t.Run("missing album argument", func(t *testing.T) {
		f := newFixture(t)
		config := shared.DefaultConfig()
		config.Sync.Album = ""
		if err := shared.SaveConfig(f.config, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		err := f.run(context.Background(), "-p", "My Playlist")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		f := newFixture(t)
		f.runner.source = nil

		err := f.run(context.Background(), "-p", "My Playlist", "-a", "Favs")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("polls until cancelled", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
		defer cancel()

		if err := f.run(ctx, "-p", "My Playlist", "-a", "Favs", "--poll", "1"); err != nil {
			t.Fatalf("expected nil on cancellation, got %v", err)
		}

		out := f.output.String()
		if !strings.Contains(out, "synced 65 photos") {
			t.Errorf("expected first attempt to sync, got %q", out)
		}
		if !strings.Contains(out, "nothing to do") {
			t.Errorf("expected a later attempt to find nothing to do, got %q", out)
		}
	})
}

func TestStart(t *testing.T) {
	t.Run("starts a carried playlist", func(t *testing.T) {
		f := newFixture(t)
		f.frames.Frames = []models.Frame{{ID: "f1", Name: "Westcott", PlaylistIDs: []string{"pl-1"}}}

		if err := f.run(context.Background(), "-p", "My Playlist", "--frame", "Westcott", "--start"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.frames.Started) != 1 || f.frames.Started[0] != [2]string{"f1", "pl-1"} {
			t.Errorf("expected playlist started on f1, got %v", f.frames.Started)
		}
		if !strings.Contains(f.output.String(), "Started My Playlist on Westcott") {
			t.Errorf("unexpected output %q", f.output.String())
		}
		if f.dest.Calls["insert_items"] != 0 {
			t.Error("expected --start not to sync")
		}
	})

	t.Run("skips a frame without the playlist", func(t *testing.T) {
		f := newFixture(t)
		f.frames.Frames = []models.Frame{{ID: "f1", Name: "Westcott"}}

		if err := f.run(context.Background(), "-p", "My Playlist", "--frame", "Westcott", "start"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(f.frames.Started) != 0 {
			t.Errorf("expected nothing started, got %v", f.frames.Started)
		}
		if !strings.Contains(f.output.String(), "is not assigned to Westcott") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("unknown frame", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(context.Background(), "-p", "My Playlist", "--frame", "Attic", "start")
		if !errors.Is(err, shared.ErrFrameNotFound) {
			t.Errorf("expected ErrFrameNotFound, got %v", err)
		}
	})
}

func TestStatus(t *testing.T) {
	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.frames.Frames = []models.Frame{
			{ID: "f1", Name: "Westcott", PlaylistIDs: []string{"pl-1"}},
			{ID: "f2", Name: "Kitchen"},
		}
		f.frames.Settings["f1"] = models.FrameSettings{FrameID: "f1", SlideDuration: 15, Transition: "fade"}
		f.frames.Statuses = []models.FrameStatus{{ID: "f1", Online: true, LastConnected: newer}}
		return f
	}

	t.Run("text", func(t *testing.T) {
		f := setup(t)

		if err := f.run(context.Background(), "-p", "My Playlist", "--status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.output.String()
		for _, want := range []string{
			"Nixplay frames (2)",
			"Frame: Westcott (f1)",
			"Status: online",
			"15s per slide",
			"Carries My Playlist: true",
			"Carries My Playlist: false",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		f := setup(t)

		if err := f.run(context.Background(), "-p", "My Playlist", "status", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var reports []formatter.FrameReport
		if err := json.Unmarshal(f.output.Bytes(), &reports); err != nil {
			t.Fatalf("expected JSON output, got %v: %s", err, f.output.String())
		}
		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		if !reports[0].HasPlaylist || reports[1].HasPlaylist {
			t.Errorf("unexpected playlist flags: %+v", reports)
		}
		if reports[0].Settings == nil || reports[1].Settings != nil {
			t.Errorf("expected settings only for f1: %+v", reports)
		}
		if reports[0].Status == nil || !reports[0].Status.Online {
			t.Errorf("expected f1 online: %+v", reports[0].Status)
		}
	})

	t.Run("frame listing error", func(t *testing.T) {
		f := setup(t)
		f.frames.Err = errors.New("mobile api down")

		if err := f.run(context.Background(), "status"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBrowse(t *testing.T) {
	t.Run("playlists json", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "playlists", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var playlists []models.Playlist
		if err := json.Unmarshal(f.output.Bytes(), &playlists); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(playlists) != 1 || playlists[0].Name != "My Playlist" || playlists[0].ItemCount != 5 {
			t.Errorf("unexpected playlists: %+v", playlists)
		}
	})

	t.Run("album csv", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "-a", "Favs", "album", "--format", "csv"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(f.output.String()), "\n")
		if len(lines) != 66 {
			t.Fatalf("expected header and 65 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "ID,Title") {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.Contains(lines[1], "https://k/p0.jpg") {
			t.Errorf("expected first photo first, got %q", lines[1])
		}
	})

	t.Run("album written to file", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "favs.md")

		if err := f.run(context.Background(), "-a", "Favs", "album", "--format", "md", "-o", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.HasPrefix(content, "# Favs") {
			t.Errorf("unexpected markdown %q", content)
		}
	})

	t.Run("album with invalid format", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(context.Background(), "-a", "Favs", "album", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("history", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		if err := f.run(ctx, "-p", "My Playlist", "-a", "Favs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.run(ctx, "-p", "Nope", "-a", "Favs")
		f.output.Reset()

		if err := f.run(ctx, "history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "My Playlist <- Favs: synced (65 photos, 3 calls") {
			t.Errorf("expected synced run, got %q", out)
		}
		if strings.Index(out, "Nope") > strings.Index(out, "My Playlist") {
			t.Errorf("expected newest run first, got %q", out)
		}

		f.output.Reset()
		if err := f.run(ctx, "history", "--outcome", "failed", "--format", "csv"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(f.output.String()), "\n")
		if len(lines) != 2 || !strings.Contains(lines[1], "Nope") {
			t.Errorf("expected only the failed run, got %v", lines)
		}
	})

	t.Run("history prune", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		if err := f.run(ctx, "-p", "My Playlist", "-a", "Favs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.output.Reset()

		if err := f.run(ctx, "history", "--prune", "1ns"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "No sync runs recorded.") {
			t.Errorf("expected pruned journal, got %q", f.output.String())
		}
	})

	t.Run("history without a journal", func(t *testing.T) {
		f := newFixture(t)
		f.runner.journal = nil

		err := f.run(context.Background(), "--db", "", "history")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		f := newFixture(t)
		f.config = filepath.Join(t.TempDir(), "new.toml")

		if err := f.run(context.Background(), "setup", "config"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, f.config)
		if _, err := shared.LoadConfig(f.config); err != nil {
			t.Errorf("expected a loadable config, got %v", err)
		}
	})

	t.Run("config refuses to overwrite", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "setup", "config"); err == nil {
			t.Error("expected error for existing config")
		}
	})

	t.Run("database", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "journal.db")

		if err := f.run(context.Background(), "--db", path, "setup", "database"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(f.output.String(), "Run journal ready at "+path) {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})
}

type fakeAuthorizer struct {
	verifier string
}

func (a *fakeAuthorizer) RequestAuthorization() (*flickr.RequestToken, string, error) {
	return &flickr.RequestToken{}, "https://www.flickr.com/services/oauth/authorize?oauth_token=req", nil
}

func (a *fakeAuthorizer) CompleteAuthorization(token *flickr.RequestToken, verifier string) (*flickr.OAuthToken, error) {
	a.verifier = verifier
	return &flickr.OAuthToken{
		OAuthToken:       "access-token",
		OAuthTokenSecret: "access-secret",
		UserNsid:         "12345@N00",
		Username:         "owner",
	}, nil
}

func TestAuth(t *testing.T) {
	t.Run("flickr saves the access token", func(t *testing.T) {
		f := newFixture(t)
		authorizer := &fakeAuthorizer{}
		var opened string
		f.runner.authorizer = authorizer
		f.runner.input = strings.NewReader("123-456-789\n")
		f.runner.openBrowser = func(url string) error {
			opened = url
			return nil
		}

		err := f.run(context.Background(), "--flickr-api-key", "key", "--flickr-api-secret", "secret", "auth", "flickr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(opened, "oauth_token=req") {
			t.Errorf("expected authorization URL to be opened, got %q", opened)
		}
		if authorizer.verifier != "123-456-789" {
			t.Errorf("expected trimmed verifier, got %q", authorizer.verifier)
		}

		saved, err := shared.LoadConfig(f.config)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		creds := saved.Credentials.Flickr
		if creds.OAuthToken != "access-token" || creds.OAuthTokenSecret != "access-secret" || creds.UserID != "12345@N00" {
			t.Errorf("unexpected saved credentials: %+v", creds)
		}
		if !strings.Contains(f.output.String(), "Authorization successful for owner") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("flickr prints the URL when the browser fails", func(t *testing.T) {
		f := newFixture(t)
		f.runner.authorizer = &fakeAuthorizer{}
		f.runner.input = strings.NewReader("code\n")
		f.runner.openBrowser = func(string) error { return errors.New("no display") }

		err := f.run(context.Background(), "--flickr-api-key", "key", "--flickr-api-secret", "secret", "auth", "flickr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "https://www.flickr.com/services/oauth/authorize") {
			t.Errorf("expected URL in output, got %q", f.output.String())
		}
	})

	t.Run("flickr without a verifier", func(t *testing.T) {
		f := newFixture(t)
		f.runner.authorizer = &fakeAuthorizer{}
		f.runner.input = strings.NewReader("")
		f.runner.openBrowser = func(string) error { return nil }

		err := f.run(context.Background(), "--flickr-api-key", "key", "--flickr-api-secret", "secret", "auth", "flickr")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("flickr without api keys", func(t *testing.T) {
		f := newFixture(t)
		f.runner.authorizer = &fakeAuthorizer{}

		err := f.run(context.Background(), "auth", "flickr")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("nixplay with injected services", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(context.Background(), "auth", "nixplay"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "Web API login OK") || !strings.Contains(out, "Mobile API login OK") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
