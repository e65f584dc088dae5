package block

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voxelstream/internal/geom"
)

// Definition is one block type entry of a blocks file.
type Definition struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// Opacity lists opaque sides by name, or "all".
	Opacity []string `yaml:"opacity"`
	// Textures maps "all", "side" (the four horizontal faces) or a side name to
	// an atlas tile [column, row]. More specific keys win.
	Textures map[string][]int `yaml:"textures"`

	id        int
	opacity   Opacity
	tiles     [geom.NumSides][2]int
	tileScale float32
}

// ID is the type id assigned at registration.
func (d *Definition) ID() int { return d.id }

// File is the on-disk layout of a blocks file.
type File struct {
	AtlasTiles int          `yaml:"atlas_tiles"`
	Blocks     []Definition `yaml:"blocks"`
}

// Factory creates block handles of one type.
type Factory interface {
	Name() string
	TypeID() int
	Instantiate() Handle
}

type kindFactory struct {
	def       *Definition
	kind      Kind
	singleton Block
}

func (f *kindFactory) Name() string { return f.def.Name }
func (f *kindFactory) TypeID() int  { return f.def.id }

func (f *kindFactory) Instantiate() Handle {
	if f.kind.Stateful {
		return Owned(f.kind.New(f.def))
	}
	return Shared(f.singleton)
}

// Registry is the table of block factories, looked up by name.
// It is read-only once loading has finished and safe to share across goroutines then.
type Registry struct {
	kinds     map[string]Kind
	byName    map[string]Factory
	atlas     int
	tileScale float32
}

// NewRegistry returns an empty registry knowing the built-in kinds.
// atlasTiles is the number of tiles per row of the texture atlas.
func NewRegistry(atlasTiles int) *Registry {
	if atlasTiles <= 0 {
		atlasTiles = 16
	}
	r := &Registry{
		kinds:     make(map[string]Kind, len(builtinKinds)),
		byName:    make(map[string]Factory),
		atlas:     atlasTiles,
		tileScale: 1 / float32(atlasTiles),
	}
	for name, k := range builtinKinds {
		r.kinds[name] = k
	}
	return r
}

// AtlasTiles is the number of tiles per row of the texture atlas.
func (r *Registry) AtlasTiles() int { return r.atlas }

// RegisterKind makes a block implementation available to definitions.
func (r *Registry) RegisterKind(name string, k Kind) {
	r.kinds[name] = k
}

// Register adds a block type and returns its factory.
func (r *Registry) Register(def Definition) (Factory, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("block definition without a name")
	}
	if _, dup := r.byName[def.Name]; dup {
		return nil, fmt.Errorf("block %q registered twice", def.Name)
	}
	kind, ok := r.kinds[def.Kind]
	if !ok {
		return nil, fmt.Errorf("block %q: unknown kind %q", def.Name, def.Kind)
	}
	d := def
	if err := d.resolve(); err != nil {
		return nil, fmt.Errorf("block %q: %w", def.Name, err)
	}
	d.id = len(r.byName)
	d.tileScale = r.tileScale

	f := &kindFactory{def: &d, kind: kind}
	if !kind.Stateful {
		f.singleton = kind.New(&d)
	}
	r.byName[d.Name] = f
	return f, nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// MustGet returns the named factory and panics when it is missing:
// generation and placement code cannot run with an incomplete block table.
func (r *Registry) MustGet(name string) Factory {
	f, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("block: unknown block type %q", name))
	}
	return f
}

// LoadRegistry reads a blocks file from disk.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := ParseRegistry(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry builds a registry from YAML.
func ParseRegistry(raw []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("blocks yaml: %w", err)
	}
	r := NewRegistry(f.AtlasTiles)
	for _, def := range f.Blocks {
		if _, err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns the built-in block set (Air, Stone, Dirt, Grass).
func DefaultRegistry() *Registry {
	r, err := ParseRegistry([]byte(defaultBlocks))
	if err != nil {
		panic(err)
	}
	return r
}

const defaultBlocks = `
atlas_tiles: 16
blocks:
  - name: Air
    kind: empty
  - name: Stone
    kind: plain
    opacity: [all]
    textures: {all: [1, 0]}
  - name: Dirt
    kind: plain
    opacity: [all]
    textures: {all: [2, 0]}
  - name: Grass
    kind: plain
    opacity: [all]
    textures: {all: [2, 0], side: [3, 0], Top: [0, 0]}
`

func (d *Definition) resolve() error {
	d.opacity = OpacityNone
	for _, name := range d.Opacity {
		if strings.EqualFold(name, "all") {
			d.opacity = OpacityFull
			continue
		}
		s, ok := geom.ParseSide(name)
		if !ok {
			return fmt.Errorf("unknown side %q in opacity", name)
		}
		d.opacity |= OpacityOf(s)
	}

	tile := func(key string) ([2]int, bool, error) {
		for k, v := range d.Textures {
			if !strings.EqualFold(k, key) {
				continue
			}
			if len(v) != 2 {
				return [2]int{}, false, fmt.Errorf("texture %q: want [column, row], got %v", k, v)
			}
			return [2]int{v[0], v[1]}, true, nil
		}
		return [2]int{}, false, nil
	}
	all, _, err := tile("all")
	if err != nil {
		return err
	}
	side, hasSide, err := tile("side")
	if err != nil {
		return err
	}
	for _, s := range geom.Sides {
		d.tiles[s] = all
		if hasSide && s != geom.Top && s != geom.Bottom {
			d.tiles[s] = side
		}
		t, ok, err := tile(s.String())
		if err != nil {
			return err
		}
		if ok {
			d.tiles[s] = t
		}
	}
	return nil
}
