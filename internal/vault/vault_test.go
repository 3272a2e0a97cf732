package vault

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lazybuddy/buddy/internal/logging"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	return New(t.TempDir(), logging.Nop())
}

func writeNote(t *testing.T, v *Vault, path, content string) {
	t.Helper()
	full := filepath.Join(v.Root(), path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}
}

func TestParseFrontmatter(t *testing.T) {
	fm, body := ParseFrontmatter("---\ntitle: Weekly Review\ntype: review\n---\nThe body.\n")
	if fm["title"] != "Weekly Review" || fm["type"] != "review" {
		t.Errorf("frontmatter = %v", fm)
	}
	if body != "The body.\n" {
		t.Errorf("body = %q", body)
	}

	fm, body = ParseFrontmatter("no frontmatter here\n")
	if fm != nil {
		t.Errorf("expected nil frontmatter, got %v", fm)
	}
	if body != "no frontmatter here\n" {
		t.Errorf("body = %q", body)
	}

	// malformed YAML: nil map, content untouched
	raw := "---\n: : :\n---\nbody\n"
	fm, body = ParseFrontmatter(raw)
	if fm != nil {
		t.Errorf("expected nil frontmatter for malformed yaml, got %v", fm)
	}
	if body != raw {
		t.Errorf("body = %q, want untouched content", body)
	}
}

func TestExtractTags(t *testing.T) {
	got := ExtractTags("Started #running again. #health/fitness matters, and #running daily.")
	want := []string{"#running", "#health/fitness"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestExtractLinks(t *testing.T) {
	got := ExtractLinks("See [[Weekly Review]] and [[projects/buddy|the project]], also [[Weekly Review]].")
	want := []string{"Weekly Review", "projects/buddy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %v, want %v", got, want)
	}
}

func TestLinkCounts(t *testing.T) {
	got := LinkCounts("See [[Weekly Review]] and [[projects/buddy|the project]], also [[Weekly Review]].")
	want := map[string]int{"Weekly Review": 2, "projects/buddy": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("counts = %v, want %v", got, want)
	}
}

func TestInstalledPlugins(t *testing.T) {
	v := testVault(t)
	for _, plugin := range []string{"dataview", "calendar"} {
		if err := os.MkdirAll(filepath.Join(v.Root(), ".obsidian", "plugins", plugin), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// stray file alongside the plugin dirs
	if err := os.WriteFile(filepath.Join(v.Root(), ".obsidian", "plugins", "readme.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := v.InstalledPlugins()
	want := []string{"calendar", "dataview"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("plugins = %v, want %v", got, want)
	}
}

func TestInstalledPluginsMissingDir(t *testing.T) {
	if got := testVault(t).InstalledPlugins(); got != nil {
		t.Errorf("plugins = %v, want nil for vault without .obsidian", got)
	}
}

func TestAllNotesSkipsInternalDirs(t *testing.T) {
	v := testVault(t)
	writeNote(t, v, "inbox/idea.md", "an idea")
	writeNote(t, v, "daily/2026-03-10.md", "log")
	writeNote(t, v, ".obsidian/workspace.md", "should not appear")
	writeNote(t, v, "notes.txt", "not markdown")

	got := v.AllNotes()
	want := []string{filepath.Join("daily", "2026-03-10.md"), filepath.Join("inbox", "idea.md")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllNotes = %v, want %v", got, want)
	}
}

func TestReadNote(t *testing.T) {
	v := testVault(t)
	writeNote(t, v, "journal.md", "---\ncreated: \"2026-03-09 14:30\"\nmood: good\n---\nRan 5k today #running [[Training Plan]]\n")

	note, err := v.ReadNote("journal.md")
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if note.Name != "journal" {
		t.Errorf("name = %q", note.Name)
	}
	if note.Frontmatter["mood"] != "good" {
		t.Errorf("frontmatter = %v", note.Frontmatter)
	}
	want := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
	if !note.Created.Equal(want) {
		t.Errorf("created = %v, want %v", note.Created, want)
	}
	if !reflect.DeepEqual(note.Tags, []string{"#running"}) {
		t.Errorf("tags = %v", note.Tags)
	}
	if !reflect.DeepEqual(note.Links, []string{"Training Plan"}) {
		t.Errorf("links = %v", note.Links)
	}
}

func TestReadNoteCreatedFallsBackToModTime(t *testing.T) {
	v := testVault(t)
	writeNote(t, v, "plain.md", "no frontmatter")

	note, err := v.ReadNote("plain.md")
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if !note.Created.Equal(note.Modified) {
		t.Errorf("created %v should equal modified %v", note.Created, note.Modified)
	}
}

func TestFindByTag(t *testing.T) {
	v := testVault(t)
	writeNote(t, v, "a.md", "about #running")
	writeNote(t, v, "b.md", "about #reading")

	matches := v.FindByTag("#running")
	if len(matches) != 1 || matches[0].Name != "a" {
		t.Errorf("FindByTag = %v", matches)
	}
}

func TestFindByFrontmatter(t *testing.T) {
	v := testVault(t)
	writeNote(t, v, "a.md", "---\ntype: review\n---\nbody")
	writeNote(t, v, "b.md", "---\ntype: daily\n---\nbody")
	writeNote(t, v, "c.md", "no frontmatter")

	if got := v.FindByFrontmatter("type", "review"); len(got) != 1 || got[0].Name != "a" {
		t.Errorf("value match = %v", got)
	}
	if got := v.FindByFrontmatter("type", nil); len(got) != 2 {
		t.Errorf("existence match = %d notes, want 2", len(got))
	}
}

func TestCreateNoteRoundTrip(t *testing.T) {
	v := testVault(t)
	err := v.CreateNote("inbox/new.md", "hello", map[string]any{"type": "capture"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	note, err := v.ReadNote(filepath.Join("inbox", "new.md"))
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if note.Frontmatter["type"] != "capture" {
		t.Errorf("frontmatter = %v", note.Frontmatter)
	}
	if strings.TrimSpace(note.Content) != "hello" {
		t.Errorf("content = %q", note.Content)
	}
}
