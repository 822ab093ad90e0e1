package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

const skillFileName = "SKILL.md"

// Discovery handles skill discovery from configured directories. Each skill
// lives in its own directory containing a SKILL.md file with YAML
// frontmatter; everything else in the directory is supporting material.
type Discovery struct {
	skillDirs  []string
	pluginDirs []pluginDirConfig
}

// pluginDirConfig represents a plugin skills directory with its name prefix.
type pluginDirConfig struct {
	dir    string
	prefix string
}

// Option is a function that configures a Discovery.
type Option func(*Discovery) error

// WithSkillDirs sets custom skill directories. Entries may be doublestar
// glob patterns ("./vendor/**/skills"); non-matching patterns are ignored.
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = expandDirPatterns(dirs)
		return nil
	}
}

// WithDefaultDirs initializes with the default skill directories.
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.skillDirs = []string{
			"./.skillet/skills",                          // Repo-local standalone (highest precedence)
			filepath.Join(homeDir, ".skillet", "skills"), // User-global standalone
		}

		d.pluginDirs = []pluginDirConfig{}
		d.addPluginDirs("./.skillet/plugins")
		d.addPluginDirs(filepath.Join(homeDir, ".skillet", "plugins"))

		return nil
	}
}

// expandDirPatterns resolves doublestar patterns against the filesystem and
// passes plain paths through untouched, preserving order.
func expandDirPatterns(patterns []string) []string {
	var dirs []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			dirs = append(dirs, pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			continue
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				dirs = append(dirs, match)
			}
		}
	}
	return dirs
}

// addPluginDirs scans a plugins directory and registers every nested
// org/repo skills directory under a name prefix.
func (d *Discovery) addPluginDirs(pluginsDir string) {
	_ = filepath.Walk(pluginsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}

		skillsDir := filepath.Join(path, "skills")
		if _, err := os.Stat(skillsDir); err != nil {
			return nil
		}

		relPath, err := filepath.Rel(pluginsDir, path)
		if err != nil {
			return nil
		}

		d.pluginDirs = append(d.pluginDirs, pluginDirConfig{
			dir:    skillsDir,
			prefix: filepath.ToSlash(relPath) + "/",
		})

		return filepath.SkipDir
	})
}

// Dirs returns every directory this discovery reads from, standalone skill
// directories first. Used to set up filesystem watches.
func (d *Discovery) Dirs() []string {
	dirs := append([]string(nil), d.skillDirs...)
	for _, p := range d.pluginDirs {
		dirs = append(dirs, p.dir)
	}
	return dirs
}

// NewDiscovery creates a new skill discovery instance.
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}

	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// DiscoverSkills finds all available skills from the configured directories.
// On name collisions the earliest directory wins.
func (d *Discovery) DiscoverSkills() ([]*Skill, error) {
	byName := make(map[string]*Skill)
	var ordered []*Skill

	collect := func(dir, prefix string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		for _, entry := range entries {
			entryPath := filepath.Join(dir, entry.Name())

			// os.Stat follows symlinks so a linked skill directory works
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			skill, err := loadSkillFile(filepath.Join(entryPath, skillFileName))
			if err != nil {
				continue
			}

			skill.Name = prefix + skill.Name
			skill.Directory = entryPath

			if _, exists := byName[skill.Name]; exists {
				continue
			}
			byName[skill.Name] = skill
			ordered = append(ordered, skill)
		}
	}

	for _, dir := range d.skillDirs {
		collect(dir, "")
	}
	for _, pluginDir := range d.pluginDirs {
		collect(pluginDir.dir, pluginDir.prefix)
	}

	return ordered, nil
}

// loadSkillFile parses a single SKILL.md into a record.
func loadSkillFile(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	m, err := decodeMetadata(metaData)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if m.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	return &Skill{
		Name:          m.Name,
		Description:   m.Description,
		Content:       extractBodyContent(string(content)),
		Compatibility: m.Compatibility,
		Priority:      m.Priority,
		Tags:          m.Tags,
		Requires:      m.Requires,
	}, nil
}

// decodeMetadata maps the loosely-typed frontmatter values onto Metadata via
// a yaml round trip, which handles the scalar coercions (priority parsed as a
// float, single-item lists) in one place.
func decodeMetadata(raw map[string]interface{}) (Metadata, error) {
	var m Metadata
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return m, errors.Wrap(err, "failed to encode frontmatter")
	}
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return m, errors.Wrap(err, "invalid frontmatter")
	}
	return m, nil
}

// extractBodyContent removes YAML frontmatter and returns the body.
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// FilterByAllowlist keeps only the named skills. An empty allowlist keeps
// everything.
func FilterByAllowlist(records []*Skill, allowed []string) []*Skill {
	if len(allowed) == 0 {
		return records
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	var filtered []*Skill
	for _, rec := range records {
		if _, ok := allowedSet[rec.Name]; ok {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
