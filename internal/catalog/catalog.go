// Package catalog holds the keyword dictionary, category structures, source-system
// table and ingress/egress descriptor that drive the data product builder.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"finitefield.org/c360-builder/internal/platform/textutil"
)

// Category names of the embedded catalog.
const (
	CategoryCustomerIdentification = "customer_identification"
	CategoryDemographics           = "demographics"
	CategoryTransactions           = "transactions"
	CategoryLoans                  = "loans"
	CategoryPreferences            = "preferences"
)

//go:embed default.yaml
var defaultDocument []byte

// ErrEmptyDocument is returned when a catalog document has no content.
var ErrEmptyDocument = errors.New("catalog: empty document")

// Catalog is an immutable description of the customer data domains.
type Catalog struct {
	Title          string
	Summary        string
	DefaultUseCase string
	Categories     []Category
	Sources        map[string]string
	IngressEgress  IngressEgress
}

// Category groups the keywords that select it and the attributes it contributes.
type Category struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Keywords   []string `json:"keywords"`
	Attributes []string `json:"attributes"`
}

// IngressEgress describes how data enters and leaves the product. It is illustrative only.
type IngressEgress struct {
	Ingress Ingress `json:"Ingress" yaml:"ingress"`
	Egress  Egress  `json:"Egress" yaml:"egress"`
}

// Ingress lists the loading method and tooling.
type Ingress struct {
	Method string   `json:"Method" yaml:"method"`
	Tools  []string `json:"Tools" yaml:"tools"`
}

// Egress lists the consumption channels and auth scheme.
type Egress struct {
	AccessMethods []string `json:"Access Methods" yaml:"access_methods"`
	Auth          string   `json:"Auth" yaml:"auth"`
}

// SourceEntry is one row of the attribute to source-system table.
type SourceEntry struct {
	Attribute string `json:"attribute"`
	Source    string `json:"source"`
}

type document struct {
	Title          string            `yaml:"title"`
	Summary        string            `yaml:"summary"`
	DefaultUseCase string            `yaml:"default_use_case"`
	Categories     []categoryDoc     `yaml:"categories"`
	Sources        map[string]string `yaml:"sources"`
	IngressEgress  IngressEgress     `yaml:"ingress_egress"`
}

type categoryDoc struct {
	Name       string   `yaml:"name"`
	Label      string   `yaml:"label"`
	Keywords   []string `yaml:"keywords"`
	Attributes []string `yaml:"attributes"`
}

// ValidationError lists every problem found in a catalog document.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid document: %s", strings.Join(e.Problems, "; "))
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultDocument)
})

// Default returns the embedded catalog. It panics if the embedded document is invalid,
// which the package tests rule out.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile parses the catalog stored at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", path, err)
	}
	return c, nil
}

// Resolve returns the catalog at path, or the embedded default when path is blank.
func Resolve(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Parse decodes and validates a YAML catalog document. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := fromDocument(doc)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func fromDocument(doc document) *Catalog {
	c := &Catalog{
		Title:          strings.TrimSpace(doc.Title),
		Summary:        strings.TrimSpace(doc.Summary),
		DefaultUseCase: strings.TrimSpace(doc.DefaultUseCase),
		Categories:     make([]Category, 0, len(doc.Categories)),
		Sources:        textutil.NormalizeStringMap(doc.Sources),
		IngressEgress: IngressEgress{
			Ingress: Ingress{
				Method: strings.TrimSpace(doc.IngressEgress.Ingress.Method),
				Tools:  textutil.NormalizeList(doc.IngressEgress.Ingress.Tools, nil),
			},
			Egress: Egress{
				AccessMethods: textutil.NormalizeList(doc.IngressEgress.Egress.AccessMethods, nil),
				Auth:          strings.TrimSpace(doc.IngressEgress.Egress.Auth),
			},
		},
	}
	if c.Sources == nil {
		c.Sources = map[string]string{}
	}
	for _, cat := range doc.Categories {
		name := textutil.Fold(strings.TrimSpace(cat.Name))
		label := strings.TrimSpace(cat.Label)
		if label == "" {
			label = name
		}
		c.Categories = append(c.Categories, Category{
			Name:       name,
			Label:      label,
			Keywords:   textutil.NormalizeList(cat.Keywords, textutil.Fold),
			Attributes: textutil.NormalizeList(cat.Attributes, nil),
		})
	}
	return c
}

// Validate checks structural rules of the catalog.
func (c *Catalog) Validate() error {
	var problems []string
	if len(c.Categories) == 0 {
		problems = append(problems, "no categories defined")
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			problems = append(problems, fmt.Sprintf("category #%d has no name", i+1))
			continue
		}
		if _, dup := seen[cat.Name]; dup {
			problems = append(problems, fmt.Sprintf("category %q defined twice", cat.Name))
		}
		seen[cat.Name] = struct{}{}
		if len(cat.Keywords) == 0 {
			problems = append(problems, fmt.Sprintf("category %q has no keywords", cat.Name))
		}
		if len(cat.Attributes) == 0 {
			problems = append(problems, fmt.Sprintf("category %q has no attributes", cat.Name))
		}
	}
	for _, attr := range sortedKeys(c.Sources) {
		if c.Sources[attr] == "" {
			problems = append(problems, fmt.Sprintf("attribute %q has a blank source", attr))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// CategoryNames returns category names in document order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Source returns the source system registered for attribute.
func (c *Catalog) Source(attribute string) (string, bool) {
	source, ok := c.Sources[attribute]
	return source, ok
}

// SourceTable returns the source mapping sorted by attribute name.
func (c *Catalog) SourceTable() []SourceEntry {
	entries := make([]SourceEntry, 0, len(c.Sources))
	for _, attr := range sortedKeys(c.Sources) {
		entries = append(entries, SourceEntry{Attribute: attr, Source: c.Sources[attr]})
	}
	return entries
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
