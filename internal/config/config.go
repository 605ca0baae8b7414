// Package config loads a model definition and run configuration from
// YAML, mirroring the shape of internal/model.Model and
// internal/engine.Config. yaml.v3 is grounded on
// viant-linager/analyzer/analyzer_test.go's yaml.Unmarshal/Marshal
// usage, the only direct import of the library anywhere in the
// example pack.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bfix/sysdyn/internal/engine"
	"github.com/bfix/sysdyn/internal/model"
)

// ModelFile is the on-disk YAML shape for a model definition.
type ModelFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Time struct {
		Start float64 `yaml:"start"`
		Stop  float64 `yaml:"stop"`
		Dt    float64 `yaml:"dt"`
		Units string  `yaml:"units"`
	} `yaml:"time"`

	Parameters []struct {
		Name  string  `yaml:"name"`
		Value float64 `yaml:"value"`
	} `yaml:"parameters"`

	Stocks []struct {
		Name        string   `yaml:"name"`
		Initial     string   `yaml:"initial"`
		Inflows     []string `yaml:"inflows"`
		Outflows    []string `yaml:"outflows"`
		NonNegative bool     `yaml:"non_negative"`
		Max         *float64 `yaml:"max"`
	} `yaml:"stocks"`

	Flows []struct {
		Name     string `yaml:"name"`
		Equation string `yaml:"equation"`
	} `yaml:"flows"`

	Auxiliaries []struct {
		Name     string `yaml:"name"`
		Equation string `yaml:"equation"`
	} `yaml:"auxiliaries"`

	Lookups []struct {
		Name   string      `yaml:"name"`
		Points [][2]float64 `yaml:"points"`
	} `yaml:"lookups"`

	Run struct {
		Method         string  `yaml:"method"`
		OutputInterval float64 `yaml:"output_interval"`
		Seed           uint64  `yaml:"seed"`
		Seeded         bool    `yaml:"seeded"`
	} `yaml:"run"`
}

// LoadModelFile reads and parses a YAML model definition file.
func LoadModelFile(path string) (*ModelFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseModelFile(f)
}

// ParseModelFile parses a YAML model definition from r.
func ParseModelFile(r io.Reader) (*ModelFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var mf ModelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("config: parsing model file: %w", err)
	}
	return &mf, nil
}

// Build constructs a model.Model and engine.Config from a parsed
// ModelFile, parsing every equation string with model.Parse.
func (mf *ModelFile) Build() (*model.Model, engine.Config, error) {
	timeCfg := model.TimeConfig{Start: mf.Time.Start, Stop: mf.Time.Stop, Dt: mf.Time.Dt, Units: mf.Time.Units}
	m := model.NewModel(model.Metadata{Name: mf.Name, Description: mf.Description}, timeCfg)

	for _, p := range mf.Parameters {
		if err := m.AddParameter(&model.Parameter{Name: p.Name, Value: p.Value}); err != nil {
			return nil, engine.Config{}, err
		}
	}

	for _, l := range mf.Lookups {
		flat := make([]float64, 0, len(l.Points)*2)
		for _, pt := range l.Points {
			flat = append(flat, pt[0], pt[1])
		}
		table, err := model.LookupPoints(flat)
		if err != nil {
			return nil, engine.Config{}, err
		}
		table.Name = l.Name
		if err := m.AddLookupTable(table); err != nil {
			return nil, engine.Config{}, err
		}
	}

	for _, s := range mf.Stocks {
		expr, err := model.Parse(s.Initial)
		if err != nil {
			return nil, engine.Config{}, fmt.Errorf("config: stock %q initial: %w", s.Name, err)
		}
		stock := &model.Stock{
			Name:        s.Name,
			Initial:     expr,
			Inflows:     s.Inflows,
			Outflows:    s.Outflows,
			NonNegative: s.NonNegative,
		}
		if s.Max != nil {
			stock.HasMax = true
			stock.MaxValue = *s.Max
		}
		if err := m.AddStock(stock); err != nil {
			return nil, engine.Config{}, err
		}
	}

	for _, f := range mf.Flows {
		expr, err := model.Parse(f.Equation)
		if err != nil {
			return nil, engine.Config{}, fmt.Errorf("config: flow %q: %w", f.Name, err)
		}
		if err := m.AddFlow(&model.Flow{Name: f.Name, Equation: expr}); err != nil {
			return nil, engine.Config{}, err
		}
	}

	for _, a := range mf.Auxiliaries {
		expr, err := model.Parse(a.Equation)
		if err != nil {
			return nil, engine.Config{}, fmt.Errorf("config: auxiliary %q: %w", a.Name, err)
		}
		if err := m.AddAuxiliary(&model.Auxiliary{Name: a.Name, Equation: expr}); err != nil {
			return nil, engine.Config{}, err
		}
	}

	cfg := engine.Config{
		Method:         engine.Method(mf.Run.Method),
		OutputInterval: mf.Run.OutputInterval,
		Seed:           mf.Run.Seed,
		Seeded:         mf.Run.Seeded,
	}
	return m, cfg, nil
}
