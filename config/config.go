package config

import (
	"io/ioutil"

	"github.com/binzume/m2conv/geom"
	"github.com/binzume/m2conv/m2"
	"gopkg.in/yaml.v2"
)

type Limits struct {
	Vertices       int `yaml:"vertices"`
	Bones          int `yaml:"bones"`
	Keyframes      int `yaml:"keyframes"`
	ModelKeyframes int `yaml:"model_keyframes"`
	Textures       int `yaml:"textures"`
	Sequences      int `yaml:"sequences"`
	SkinProfiles   int `yaml:"skin_profiles"`
	Submeshes      int `yaml:"submeshes"`
	Indices        int `yaml:"indices"`
}

// Config is the parse session configuration. Omitted fields keep the
// decoder defaults.
type Config struct {
	Validation  string `yaml:"validation"`
	Coordinates string `yaml:"coordinates"`
	RawVertices bool   `yaml:"raw_vertices"`
	Concurrent  bool   `yaml:"concurrent"`
	// Workers is the number of files decoded at once in batch mode.
	Workers int    `yaml:"workers"`
	Limits  Limits `yaml:"limits"`

	Export Export `yaml:"export"`
}

// Export configures glTF output.
type Export struct {
	Scale       float32 `yaml:"scale"`
	SkinProfile int     `yaml:"skin_profile"`
	Animations  *bool   `yaml:"animations"`
	// Axes names a coordinate system applied by a scene root node.
	Axes string `yaml:"axes"`
}

func Parse(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.UnmarshalStrict(data, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Options converts the configuration to decoder options.
func (c *Config) Options() (*m2.Options, error) {
	mode, err := m2.ParseValidationMode(c.Validation)
	if err != nil {
		return nil, err
	}
	cs, err := geom.ParseCoordinateSystem(c.Coordinates)
	if err != nil {
		return nil, err
	}
	return &m2.Options{
		Validation:  mode,
		Coordinates: cs,
		RawVertices: c.RawVertices,
		Concurrent:  c.Concurrent,
		Limits: m2.Limits{
			Vertices:       c.Limits.Vertices,
			Bones:          c.Limits.Bones,
			Keyframes:      c.Limits.Keyframes,
			ModelKeyframes: c.Limits.ModelKeyframes,
			Textures:       c.Limits.Textures,
			Sequences:      c.Limits.Sequences,
			SkinProfiles:   c.Limits.SkinProfiles,
			Submeshes:      c.Limits.Submeshes,
			Indices:        c.Limits.Indices,
		},
	}, nil
}

func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}
