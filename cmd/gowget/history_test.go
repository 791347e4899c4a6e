package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/gowget/internal/database"
	"github.com/nao1215/gowget/internal/model"
)

// seedHistory writes two runs into a fresh history database and returns its directory.
func seedHistory(t *testing.T) (string, []*model.MirrorReport) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	older := model.NewMirrorReport("https://example.com/")
	older.ID = "aaaa1111-0000-0000-0000-000000000000"
	older.Domain = "example.com"
	older.Root = "example.com"
	older.StartedAt = time.Now().Add(-2 * time.Hour)
	older.AddPage(model.StoredPage{URL: "https://example.com/", Path: "index.html", Size: 2048, ContentType: "text/html", StatusCode: 200})
	older.AddPage(model.StoredPage{URL: "https://example.com/logo.png", Path: "logo.png", Size: 512, ContentType: "image/png", StatusCode: 200})
	older.AddFailure(model.Failure{URL: "https://example.com/gone", StatusCode: 404})
	older.Finish()

	newer := model.NewMirrorReport("https://docs.example.org/")
	newer.ID = "bbbb2222-0000-0000-0000-000000000000"
	newer.Domain = "docs.example.org"
	newer.Root = "docs.example.org"
	newer.StartedAt = time.Now().Add(-time.Hour)
	newer.Canceled = true
	newer.Finish()

	for _, r := range []*model.MirrorReport{older, newer} {
		if err := db.SaveRun(t.Context(), r); err != nil {
			t.Fatal(err)
		}
	}
	return dir, []*model.MirrorReport{older, newer}
}

func TestHistoryList(t *testing.T) {
	t.Parallel()

	dir, _ := seedHistory(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all runs newest first",
			args: nil,
			want: []string{"bbbb2222", "aaaa1111", "canceled", "complete", "2.5 KiB"},
		},
		{
			name:    "filtered by domain",
			args:    []string{"--domain", "example.com"},
			want:    []string{"aaaa1111", "https://example.com/"},
			notWant: []string{"bbbb2222"},
		},
		{
			name:    "limited",
			args:    []string{"-n", "1"},
			want:    []string{"bbbb2222"},
			notWant: []string{"aaaa1111"},
		},
		{
			name: "unknown domain",
			args: []string{"--domain", "nowhere.test"},
			want: []string{"No mirror runs recorded."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := runGowget(t, append([]string{"history", "--db-dir", dir}, tt.args...)...)
			if err != nil {
				t.Fatalf("history failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output should contain %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		out, err := runGowget(t, "history", "--db-dir", dir)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Index(out, "bbbb2222") > strings.Index(out, "aaaa1111") {
			t.Errorf("expected the newer run first:\n%s", out)
		}
	})
}

func TestHistoryShow(t *testing.T) {
	t.Parallel()

	dir, runs := seedHistory(t)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		out, err := runGowget(t, "history", "show", "--db-dir", dir, "aaaa")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"Mirror of https://example.com/", "https://example.com/gone", "logo.png"} {
			if !strings.Contains(out, want) {
				t.Errorf("output should contain %q:\n%s", want, out)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		out, err := runGowget(t, "history", "show", "--db-dir", dir, "-f", "markdown", "bbbb")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "# Mirror Report") || !strings.Contains(out, "The run was canceled") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		out, err := runGowget(t, "history", "show", "--db-dir", dir, "--format", "json", runs[0].ID)
		if err != nil {
			t.Fatal(err)
		}
		var got model.MirrorReport
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if got.ID != runs[0].ID || len(got.Pages) != 2 || len(got.Failures) != 1 {
			t.Errorf("unexpected run: %+v", got)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		if _, err := runGowget(t, "history", "show", "--db-dir", dir, "-f", "xml", "aaaa"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		_, err := runGowget(t, "history", "show", "--db-dir", dir, "ffff")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestHistoryFiles(t *testing.T) {
	t.Parallel()

	dir, _ := seedHistory(t)

	out, err := runGowget(t, "history", "files", "--db-dir", dir, "aaaa1111")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"PATH", "index.html", "2.0 KiB", "image/png", "https://example.com/logo.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
}

func TestHistoryDelete(t *testing.T) {
	t.Parallel()

	dir, runs := seedHistory(t)

	out, err := runGowget(t, "history", "delete", "--db-dir", dir, "bbbb")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Deleted run "+runs[1].ID) {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = runGowget(t, "history", "--db-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "bbbb2222") || !strings.Contains(out, "aaaa1111") {
		t.Errorf("expected only the remaining run:\n%s", out)
	}
}

func TestHistoryWithoutDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, args := range [][]string{
		{"history", "--db-dir", dir},
		{"history", "show", "--db-dir", dir, "aaaa"},
		{"history", "files", "--db-dir", dir, "aaaa"},
		{"history", "delete", "--db-dir", dir, "aaaa"},
	} {
		_, err := runGowget(t, args...)
		if err == nil || !strings.Contains(err.Error(), "no history yet") {
			t.Errorf("%v: expected missing history error, got %v", args, err)
		}
	}
}
