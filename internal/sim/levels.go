package sim

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/editorharness/internal/core/fields"
	"github.com/zeusync/editorharness/internal/core/models"
)

// LevelsDir is the root of level files inside the levels FS.
const LevelsDir = "Levels"

// LevelPath resolves a (category, name) pair to its file.
func LevelPath(category, name string) string {
	return path.Join(LevelsDir, category, name+".yaml")
}

// Level is the on-disk description of a level.
type Level struct {
	Name     string        `yaml:"name"`
	Entities []LevelEntity `yaml:"entities"`
}

// LevelEntity is one editor entity of a level. Parent names an entity
// declared earlier in the file.
type LevelEntity struct {
	Name        string           `yaml:"name"`
	Parent      string           `yaml:"parent,omitempty"`
	Translation []float64        `yaml:"translation,omitempty"`
	Scale       float64          `yaml:"scale,omitempty"`
	Components  []LevelComponent `yaml:"components,omitempty"`
}

// LevelComponent adds a component and overrides properties by raw path.
// Asset properties take a product path; entity properties take an entity
// name.
type LevelComponent struct {
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// ParseLevel decodes a level file.
func ParseLevel(raw []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, err
	}
	return &lvl, nil
}

type pendingLevel struct {
	name   string
	level  *Level
	frames int
}

// openLevel starts loading a level. The editor scene is discarded right away
// and repopulated once the load frames have elapsed.
func (e *Engine) openLevel(category, name string) bool {
	file := LevelPath(category, name)
	if e.levels == nil {
		e.errorf(windowLevel, "level %s not found", file)
		return false
	}
	raw, err := fs.ReadFile(e.levels, file)
	if err != nil {
		e.errorf(windowLevel, "level %s not found: %v", file, err)
		return false
	}
	lvl, err := ParseLevel(raw)
	if err != nil {
		e.errorf(windowLevel, "level %s is malformed: %v", file, err)
		return false
	}
	e.clearEditor()
	e.loaded = false
	e.level = name
	e.pending = &pendingLevel{name: name, level: lvl, frames: e.cfg.LevelLoadFrames}
	if e.pending.frames <= 0 {
		e.finishLevel()
	}
	return true
}

func (e *Engine) advanceLevel() {
	if e.pending == nil {
		return
	}
	e.pending.frames--
	if e.pending.frames <= 0 {
		e.finishLevel()
	}
}

func (e *Engine) finishLevel() {
	p := e.pending
	e.pending = nil
	byName := make(map[string]*entity)
	type deferredRef struct {
		c      *component
		path   string
		target string
	}
	var refs []deferredRef

	for _, le := range p.level.Entities {
		var parent models.EntityID
		if le.Parent != "" {
			if pe, ok := byName[le.Parent]; ok {
				parent = pe.id
			} else {
				e.warnf(windowLevel, "entity %q: parent %q is not declared before it", le.Name, le.Parent)
			}
		}
		ent := e.createEditorEntity(le.Name, parent)
		byName[le.Name] = ent
		tr := ent.transform()
		if len(le.Translation) == 3 {
			_ = tr.tree.Set(pathTranslate, models.Vec3(le.Translation[0], le.Translation[1], le.Translation[2]), false)
		}
		if le.Scale > 0 {
			_ = tr.tree.Set(pathScale, le.Scale, false)
		}
		for _, lc := range le.Components {
			typ, ok := e.types.byName[lc.Type]
			if !ok {
				e.errorf(windowLevel, "entity %q: unknown component type %q", le.Name, lc.Type)
				continue
			}
			c := ent.componentOf(typ)
			if c == nil || typ.multiple {
				c = e.attach(ent, typ)
			}
			keys := make([]string, 0, len(lc.Properties))
			for k := range lc.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := lc.Properties[k]
				_, kind, err := c.tree.Get(k, false)
				if err != nil {
					e.warnf(windowLevel, "entity %q: %s: %v", le.Name, lc.Type, err)
					continue
				}
				if s, isString := v.(string); isString {
					switch kind {
					case fields.KindEntity:
						refs = append(refs, deferredRef{c: c, path: k, target: s})
						continue
					case fields.KindAsset:
						id, found := e.assets.Lookup(s)
						if !found {
							e.warnf(windowAsset, "entity %q: asset %q is not in the catalog", le.Name, s)
						}
						v = id
					}
				}
				if err := c.tree.Set(k, v, false); err != nil {
					e.warnf(windowLevel, "entity %q: %s: %v", le.Name, lc.Type, err)
				}
			}
		}
	}
	for _, r := range refs {
		target, ok := byName[r.target]
		if !ok {
			e.warnf(windowLevel, "entity reference %q does not exist", r.target)
			continue
		}
		_ = r.c.tree.Set(r.path, target.id, false)
	}
	e.loaded = true
	e.printf(windowLevel, "level %s loaded with %d entities", p.name, len(p.level.Entities))
}

// CheckLevels reports whether fsys has a levels root.
func CheckLevels(fsys fs.FS) error {
	if _, err := fs.Stat(fsys, LevelsDir); err != nil {
		return fmt.Errorf("sim: levels root: %w", err)
	}
	return nil
}
