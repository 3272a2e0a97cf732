package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lazybuddy/buddy/internal/logging"
)

// Note is one parsed markdown note.
type Note struct {
	Path        string         `json:"path"` // relative to the vault root
	Name        string         `json:"name"` // basename without .md
	Content     string         `json:"content"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Tags        []string       `json:"tags"`
	Links       []string       `json:"links"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
}

// Info summarizes a vault.
type Info struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	NoteCount int      `json:"note_count"`
	Folders   []string `json:"folders"`
}

// Vault reads and writes markdown notes under a root directory, skipping
// the .obsidian, .claude, and .git trees.
type Vault struct {
	root string
	log  *logging.Logger
}

// New opens a vault at root. An empty root triggers detection: the first
// directory carrying an .obsidian marker, from the working directory up
// to five parents, falling back to the working directory itself.
func New(root string, log *logging.Logger) *Vault {
	if root == "" {
		root = detectRoot(log)
	}
	log.Info("VAULT", "initialized vault", zap.String("path", root))
	return &Vault{root: root, log: log}
}

func detectRoot(log *logging.Logger) string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := cwd
	for i := 0; i <= 5; i++ {
		if _, err := os.Stat(filepath.Join(dir, ".obsidian")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	log.Warn("VAULT", "no vault marker detected, using working directory", zap.String("dir", cwd))
	return cwd
}

// Root returns the vault root directory.
func (v *Vault) Root() string {
	return v.root
}

var skippedDirs = map[string]bool{".obsidian": true, ".claude": true, ".git": true}

// AllNotes returns the relative paths of every markdown file in the vault.
func (v *Vault) AllNotes() []string {
	var notes []string
	err := filepath.WalkDir(v.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			rel, relErr := filepath.Rel(v.root, path)
			if relErr == nil {
				notes = append(notes, rel)
			}
		}
		return nil
	})
	if err != nil {
		v.log.Error("VAULT", "error walking vault", zap.Error(err))
	}
	sort.Strings(notes)
	return notes
}

// Folders returns every directory under the vault root, relative paths.
func (v *Vault) Folders() []string {
	var folders []string
	filepath.WalkDir(v.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if path == v.root {
			return nil
		}
		if rel, relErr := filepath.Rel(v.root, path); relErr == nil {
			folders = append(folders, rel)
		}
		return nil
	})
	sort.Strings(folders)
	return folders
}

// GetInfo returns summary information about the vault.
func (v *Vault) GetInfo() Info {
	return Info{
		Path:      v.root,
		Name:      filepath.Base(v.root),
		NoteCount: len(v.AllNotes()),
		Folders:   v.Folders(),
	}
}

// InstalledPlugins lists the community plugins installed in the vault,
// one per directory under .obsidian/plugins. A vault without the
// directory has no plugins.
func (v *Vault) InstalledPlugins() []string {
	entries, err := os.ReadDir(filepath.Join(v.root, ".obsidian", "plugins"))
	if err != nil {
		return nil
	}
	var plugins []string
	for _, e := range entries {
		if e.IsDir() {
			plugins = append(plugins, e.Name())
		}
	}
	sort.Strings(plugins)
	return plugins
}

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n`)
	tagRe         = regexp.MustCompile(`#[\w\-/]+`)
	linkRe        = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// ParseFrontmatter splits a YAML frontmatter block off the note body.
// Malformed YAML yields a nil map and the untouched content.
func ParseFrontmatter(content string) (map[string]any, string) {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return nil, content
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &frontmatter); err != nil {
		return nil, content
	}
	return frontmatter, content[len(m[0]):]
}

// ExtractTags returns the unique #tags in content, in order of first use.
func ExtractTags(content string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, tag := range tagRe.FindAllString(content, -1) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// ExtractLinks returns the unique [[wiki link]] targets in content,
// dropping display aliases.
func ExtractLinks(content string) []string {
	var links []string
	seen := map[string]bool{}
	for _, m := range linkRe.FindAllStringSubmatch(content, -1) {
		target := strings.SplitN(m[1], "|", 2)[0]
		if !seen[target] {
			seen[target] = true
			links = append(links, target)
		}
	}
	return links
}

// LinkCounts returns each [[wiki link]] target's occurrence count in
// content. Repeat links and aliased links count toward the same target.
func LinkCounts(content string) map[string]int {
	counts := map[string]int{}
	for _, m := range linkRe.FindAllStringSubmatch(content, -1) {
		target := strings.SplitN(m[1], "|", 2)[0]
		counts[target]++
	}
	return counts
}

// ReadNote reads and parses one note by relative path. Creation time
// comes from a `created` frontmatter field when present (file birth time
// is not portable), otherwise the modification time.
func (v *Vault) ReadNote(notePath string) (*Note, error) {
	fullPath := filepath.Join(v.root, notePath)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		v.log.Error("VAULT", "error reading note", zap.String("note", notePath), zap.Error(err))
		return nil, fmt.Errorf("read note %s: %w", notePath, err)
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("stat note %s: %w", notePath, err)
	}

	content := string(data)
	frontmatter, body := ParseFrontmatter(content)

	note := &Note{
		Path:        notePath,
		Name:        strings.TrimSuffix(filepath.Base(notePath), ".md"),
		Content:     body,
		Frontmatter: frontmatter,
		Tags:        ExtractTags(content),
		Links:       ExtractLinks(content),
		Modified:    info.ModTime(),
	}
	note.Created = createdTime(frontmatter, info.ModTime())
	return note, nil
}

func createdTime(frontmatter map[string]any, fallback time.Time) time.Time {
	raw, ok := frontmatter["created"]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return fallback
}

// RecentNotes returns up to limit notes sorted by modification time,
// newest first.
func (v *Vault) RecentNotes(limit int) []Note {
	var notes []Note
	for _, path := range v.AllNotes() {
		note, err := v.ReadNote(path)
		if err != nil {
			continue
		}
		notes = append(notes, *note)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Modified.After(notes[j].Modified)
	})

	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes
}

// FindByTag returns every note carrying the exact tag.
func (v *Vault) FindByTag(tag string) []Note {
	var matches []Note
	for _, path := range v.AllNotes() {
		note, err := v.ReadNote(path)
		if err != nil {
			continue
		}
		for _, t := range note.Tags {
			if t == tag {
				matches = append(matches, *note)
				break
			}
		}
	}
	return matches
}

// FindByFrontmatter returns notes whose frontmatter has the field. A nil
// value matches existence; otherwise the value must compare equal.
func (v *Vault) FindByFrontmatter(field string, value any) []Note {
	var matches []Note
	for _, path := range v.AllNotes() {
		note, err := v.ReadNote(path)
		if err != nil || note.Frontmatter == nil {
			continue
		}
		got, ok := note.Frontmatter[field]
		if !ok {
			continue
		}
		if value == nil || got == value {
			matches = append(matches, *note)
		}
	}
	return matches
}

// CreateNote writes a new note, creating parent directories and
// prepending a YAML frontmatter block when fields are given.
func (v *Vault) CreateNote(notePath, content string, frontmatter map[string]any) error {
	fullPath := filepath.Join(v.root, notePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		v.log.Error("VAULT", "error creating note dir", zap.String("note", notePath), zap.Error(err))
		return fmt.Errorf("create note dir: %w", err)
	}

	final := content
	if len(frontmatter) > 0 {
		encoded, err := yaml.Marshal(frontmatter)
		if err != nil {
			return fmt.Errorf("encode frontmatter: %w", err)
		}
		final = "---\n" + string(encoded) + "---\n\n" + content
	}

	if err := os.WriteFile(fullPath, []byte(final), 0644); err != nil {
		v.log.Error("VAULT", "error creating note", zap.String("note", notePath), zap.Error(err))
		return fmt.Errorf("create note %s: %w", notePath, err)
	}
	v.log.Info("VAULT", "created note", zap.String("note", notePath))
	return nil
}

// UpdateNote overwrites an existing note's content.
func (v *Vault) UpdateNote(notePath, content string) error {
	fullPath := filepath.Join(v.root, notePath)
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		v.log.Error("VAULT", "error updating note", zap.String("note", notePath), zap.Error(err))
		return fmt.Errorf("update note %s: %w", notePath, err)
	}
	v.log.Info("VAULT", "updated note", zap.String("note", notePath))
	return nil
}
