package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the seed document shape.
type Catalog struct {
	Options    []OptionSpec   `yaml:"options"`
	Toppings   []ToppingSpec  `yaml:"toppings"`
	Categories []CategorySpec `yaml:"categories"`
}

// OptionSpec is applied to every seeded product.
type OptionSpec struct {
	Group           string `yaml:"group"`
	Value           string `yaml:"value"`
	PriceAdjustment int64  `yaml:"priceAdjustment"`
	Default         bool   `yaml:"default"`
}

type ToppingSpec struct {
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

type CategorySpec struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Products    []ProductSpec `yaml:"products"`
}

type ProductSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	BasePrice   int64    `yaml:"basePrice"`
	Ingredients []string `yaml:"ingredients"`
	Toppings    []string `yaml:"toppings"`
}

// DefaultCatalog parses the embedded menu.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes raw YAML and reports every problem in one error.
func ParseCatalog(raw []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var errs error
	toppings := make(map[string]struct{}, len(c.Toppings))
	for i, t := range c.Toppings {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("toppings[%d]: name required", i))
			continue
		}
		if t.Price < 0 {
			errs = multierr.Append(errs, fmt.Errorf("topping %q: negative price", name))
		}
		if _, dup := toppings[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("topping %q: duplicate", name))
		}
		toppings[name] = struct{}{}
	}
	for i, o := range c.Options {
		if strings.TrimSpace(o.Group) == "" || strings.TrimSpace(o.Value) == "" {
			errs = multierr.Append(errs, fmt.Errorf("options[%d]: group and value required", i))
		}
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("categories[%d]: name required", i))
		}
		for j, p := range cat.Products {
			if strings.TrimSpace(p.Name) == "" {
				errs = multierr.Append(errs, fmt.Errorf("categories[%d].products[%d]: name required", i, j))
				continue
			}
			if p.BasePrice <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("product %q: base price must be positive", p.Name))
			}
			for _, name := range p.Toppings {
				if _, ok := toppings[name]; !ok {
					errs = multierr.Append(errs, fmt.Errorf("product %q: unknown topping %q", p.Name, name))
				}
			}
		}
	}
	return errs
}
