package diagram

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/default.yaml
var defaultCatalog []byte

// catalogFile is the on-disk shape of a catalog.
type catalogFile struct {
	Version   int        `json:"version" yaml:"version"`
	Title     string     `json:"title" yaml:"title"`
	Nodes     []Node     `json:"nodes" yaml:"nodes"`
	Edges     []Edge     `json:"edges" yaml:"edges"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Catalog is a Graph plus the scenarios that walk it.
type Catalog struct {
	Version   int
	Title     string
	Graph     *Graph
	Scenarios []Scenario
}

// Scenario returns the scenario with the given ID, or nil if not found.
func (c *Catalog) Scenario(id string) *Scenario {
	for i := range c.Scenarios {
		if c.Scenarios[i].ID == id {
			return &c.Scenarios[i]
		}
	}
	return nil
}

// LoadCatalog loads a catalog from a YAML (.yaml, .yml) or JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	default:
		return ParseYAML(data)
	}
}

// Open loads the catalog at path, or the built-in one when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	return LoadCatalog(path)
}

// DefaultCatalog returns the built-in execution client walkthrough.
func DefaultCatalog() (*Catalog, error) {
	return ParseYAML(defaultCatalog)
}

// ParseYAML builds a catalog from YAML bytes.
func ParseYAML(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog YAML")
	}
	return cf.build()
}

// ParseJSON builds a catalog from JSON bytes.
func ParseJSON(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog JSON")
	}
	return cf.build()
}

func (cf *catalogFile) build() (*Catalog, error) {
	if cf.Version != 1 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", cf.Version)
	}

	g, err := NewGraph(cf.Nodes, cf.Edges)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(cf.Scenarios))
	for i := range cf.Scenarios {
		s := &cf.Scenarios[i]
		if s.ID == "" {
			return nil, errors.Newf("scenario %d has no id", i)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateScenario, "scenario %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if err := g.ValidateScenario(s); err != nil {
			return nil, err
		}
	}

	return &Catalog{
		Version:   cf.Version,
		Title:     cf.Title,
		Graph:     g,
		Scenarios: cf.Scenarios,
	}, nil
}
