// Package presets loads named target-symbol sets from YAML so common audits
// (dynamic loading, memory mapping, ...) can be selected by name.
package presets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garagon/symscan/internal/presets/builtin"
)

// Preset is one named set of target symbols. Includes pulls in the symbols
// of other presets.
type Preset struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Symbols     []string `yaml:"symbols"`
	Includes    []string `yaml:"includes"`
}

// maxPresetFileSize is the maximum size for a single YAML preset file (1 MB).
const maxPresetFileSize = 1 << 20

// Builtin returns the presets shipped with symscan.
func Builtin() ([]Preset, error) {
	return LoadFromFS(builtin.FS())
}

// LoadFromFS loads presets from an embed.FS or any fs.FS.
func LoadFromFS(fsys fs.FS) ([]Preset, error) {
	var all []Preset
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		ps, err := parseMultiDocYAML(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		all = append(all, ps...)
		return nil
	})
	return all, err
}

// LoadFromDir loads presets from a directory on disk.
// Oversized files are rejected.
func LoadFromDir(dir string) ([]Preset, error) {
	var all []Preset
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxPresetFileSize {
			return fmt.Errorf("preset file too large: %s (%d bytes, max 1 MB)", path, info.Size())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		ps, err := parseMultiDocYAML(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		all = append(all, ps...)
		return nil
	})
	return all, err
}

// parseMultiDocYAML decodes every "---" separated document. Unknown keys and
// documents without an id are errors; empty documents are skipped.
func parseMultiDocYAML(data []byte) ([]Preset, error) {
	var out []Preset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for n := 1; ; n++ {
		var p Preset
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("preset document %d: %w", n, err)
		}
		if p.ID == "" {
			if p.Description == "" && len(p.Symbols) == 0 && len(p.Includes) == 0 {
				continue
			}
			return nil, fmt.Errorf("preset document %d: missing id", n)
		}
		out = append(out, p)
	}
	return out, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Set indexes presets by ID. Later presets replace earlier ones with the same
// ID, which lets a custom directory override a built-in set.
type Set struct {
	byID map[string]Preset
}

// NewSet validates presets and indexes them.
func NewSet(presets []Preset) (*Set, error) {
	s := &Set{byID: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		if len(p.Symbols) == 0 && len(p.Includes) == 0 {
			return nil, fmt.Errorf("preset %q: no symbols or includes", p.ID)
		}
		for _, sym := range p.Symbols {
			if sym == "" {
				return nil, fmt.Errorf("preset %q: empty symbol", p.ID)
			}
		}
		s.byID[p.ID] = p
	}
	for _, p := range s.byID {
		if _, err := s.Expand(p.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// List returns all presets sorted by ID.
func (s *Set) List() []Preset {
	out := make([]Preset, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the preset with the given ID.
func (s *Set) Get(id string) (Preset, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Expand returns the symbols of id, followed by those of its includes.
func (s *Set) Expand(id string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	if err := s.expand(id, nil, seen, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Set) expand(id string, stack []string, seen map[string]bool, out *[]string) error {
	for _, parent := range stack {
		if parent == id {
			return fmt.Errorf("preset include cycle: %s -> %s", strings.Join(stack, " -> "), id)
		}
	}
	p, ok := s.Get(id)
	if !ok {
		if len(stack) > 0 {
			return fmt.Errorf("preset %q includes unknown preset %q", stack[len(stack)-1], id)
		}
		return fmt.Errorf("unknown preset %q", id)
	}
	for _, sym := range p.Symbols {
		if !seen[sym] {
			seen[sym] = true
			*out = append(*out, sym)
		}
	}
	for _, inc := range p.Includes {
		if err := s.expand(inc, append(stack, id), seen, out); err != nil {
			return err
		}
	}
	return nil
}

// Resolve expands each ID in order and returns the deduplicated union.
func (s *Set) Resolve(ids []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, id := range ids {
		syms, err := s.Expand(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		for _, sym := range syms {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out, nil
}

// Load returns the built-in presets merged with those in customDir (if set).
func Load(customDir string) (*Set, error) {
	all, err := Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in presets: %w", err)
	}
	if customDir != "" {
		custom, err := LoadFromDir(customDir)
		if err != nil {
			return nil, fmt.Errorf("loading presets from %s: %w", customDir, err)
		}
		all = append(all, custom...)
	}
	return NewSet(all)
}
