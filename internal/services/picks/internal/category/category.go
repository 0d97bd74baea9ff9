package category

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultConfig []byte

// FallbackColor is used for tags that match no configured category.
const FallbackColor = "#6b7280"

type Category struct {
	ID            string   `yaml:"id" json:"id"`
	Label         string   `yaml:"label" json:"label"`
	Icon          string   `yaml:"icon" json:"icon"`
	Placeholder   string   `yaml:"placeholder" json:"placeholder"`
	Color         string   `yaml:"color" json:"color"`
	AcceptsImages bool     `yaml:"acceptsImages" json:"acceptsImages"`
	Aliases       []string `yaml:"aliases" json:"aliases,omitempty"`
}

type file struct {
	Categories []Category `yaml:"categories"`
}

// Registry is the configured category list plus the legacy tag table.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	list      []Category
	byID      map[string]int
	canonical map[string]string
}

// Default returns the built-in category list.
func Default() *Registry {
	r, err := Parse(strings.NewReader(string(defaultConfig)))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded categories: %v", err))
	}
	return r
}

// Load reads a category file from path, or returns the built-in list when
// path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) (*Registry, error) {
	var cfg file
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return New(cfg.Categories)
}

func New(list []Category) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("no categories configured")
	}

	reg := &Registry{
		list:      list,
		byID:      make(map[string]int, len(list)),
		canonical: make(map[string]string),
	}

	for i, c := range list {
		if c.ID == "" {
			return nil, fmt.Errorf("category %d has no id", i)
		}
		if _, dup := reg.canonical[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category tag %q", c.ID)
		}
		reg.byID[c.ID] = i
		reg.canonical[c.ID] = c.ID
	}

	for _, c := range list {
		for _, alias := range c.Aliases {
			if owner, dup := reg.canonical[alias]; dup && owner != c.ID {
				return nil, fmt.Errorf("alias %q of %q already maps to %q", alias, c.ID, owner)
			}
			reg.canonical[alias] = c.ID
		}
	}

	return reg, nil
}

func (r *Registry) All() []Category {
	out := make([]Category, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Registry) Get(id string) (Category, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Category{}, false
	}
	return r.list[i], true
}

func (r *Registry) Valid(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Canonical maps a stored tag, current or legacy, to its category id.
// Unknown tags are returned unchanged.
func (r *Registry) Canonical(tag string) string {
	if id, ok := r.canonical[tag]; ok {
		return id
	}
	return tag
}

// Matches reports whether a stored tag belongs to category id.
func (r *Registry) Matches(id, tag string) bool {
	return r.Canonical(tag) == id
}

func (r *Registry) Color(tag string) string {
	if c, ok := r.Get(r.Canonical(tag)); ok && c.Color != "" {
		return c.Color
	}
	return FallbackColor
}

func (r *Registry) AcceptsImages(id string) bool {
	c, ok := r.Get(id)
	return ok && c.AcceptsImages
}
