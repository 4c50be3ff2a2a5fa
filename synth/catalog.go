package synth

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/vsariola/bayan"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

//go:embed presets/*.yml
var presetFS embed.FS

// DefaultPreset is the register used when a requested one is unknown.
const DefaultPreset = "accordion"

// Catalog is a read-only set of presets keyed by name.
type Catalog struct {
	presets map[string]bayan.Preset
	names   []string
}

var (
	builtinOnce    sync.Once
	builtinCatalog *Catalog
)

// Builtin returns the catalog of embedded presets. It is loaded once; a
// broken embedded preset is a programming error and panics.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := LoadCatalog(presetFS)
		if err != nil {
			panic(fmt.Errorf("failed to load builtin presets: %w", err))
		}
		if _, ok := c.presets[DefaultPreset]; !ok {
			panic("builtin presets are missing " + DefaultPreset)
		}
		builtinCatalog = c
	})
	return builtinCatalog
}

// LoadCatalog reads every .yml file of fsys as a preset named after the file.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{presets: map[string]bayan.Preset{}}
	title := cases.Title(language.English)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		var preset bayan.Preset
		if err := yaml.UnmarshalStrict(data, &preset); err != nil {
			return fmt.Errorf("could not parse preset %v: %w", p, err)
		}
		preset.Name = strings.TrimSuffix(path.Base(p), ".yml")
		if err := preset.Validate(); err != nil {
			return fmt.Errorf("preset %v: %w", preset.Name, err)
		}
		if preset.Title == "" {
			preset.Title = title.String(strings.ReplaceAll(preset.Name, "_", " "))
		}
		c.presets[preset.Name] = preset
		c.names = append(c.names, preset.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(c.names)
	return c, nil
}

// Lookup returns a copy of the named preset.
func (c *Catalog) Lookup(name string) (bayan.Preset, bool) {
	p, ok := c.presets[name]
	if !ok {
		return bayan.Preset{}, false
	}
	return p.Copy(), true
}

// Names returns the preset names in alphabetical order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

func (c *Catalog) Len() int { return len(c.names) }
