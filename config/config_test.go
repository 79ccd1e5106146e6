package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/m2conv/geom"
	"github.com/binzume/m2conv/m2"
)

const testConfig = `
validation: strict
coordinates: unity
concurrent: true
workers: 2
limits:
  vertices: 1000
  keyframes: 10
  model_keyframes: 100
export:
  scale: 0.5
  animations: false
  axes: unity
`

func TestParse(t *testing.T) {
	conf, err := Parse([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	opts, err := conf.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Validation != m2.ValidationStrict || opts.Coordinates != geom.CoordinateUnity || !opts.Concurrent {
		t.Error("options", opts)
	}
	if opts.Limits.Vertices != 1000 || opts.Limits.Keyframes != 10 || opts.Limits.ModelKeyframes != 100 || opts.Limits.Bones != 0 {
		t.Error("limits", opts.Limits)
	}
	if conf.WorkerCount() != 2 || conf.Export.Scale != 0.5 || conf.Export.Axes != "unity" || conf.Export.Animations == nil || *conf.Export.Animations {
		t.Error("config", conf)
	}

	// zero limits fall back to defaults in the parser.
	p := m2.NewParser(opts)
	if p.Options().Limits.Bones != m2.DefaultLimits.Bones || p.Options().Limits.Vertices != 1000 {
		t.Error("parser limits", p.Options().Limits)
	}
}

func TestDefaults(t *testing.T) {
	conf, err := Parse([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	opts, err := conf.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Validation != m2.ValidationPermissive || opts.Coordinates != geom.CoordinateNone || opts.Concurrent {
		t.Error("defaults", opts)
	}
	if conf.WorkerCount() != 4 {
		t.Error("workers", conf.WorkerCount())
	}
}

func TestInvalid(t *testing.T) {
	if _, err := Parse([]byte("validaton: strict")); err == nil {
		t.Error("unknown keys should be rejected")
	}

	conf, _ := Parse([]byte("coordinates: maya"))
	if _, err := conf.Options(); err == nil {
		t.Error("unknown coordinate system")
	}
	conf, _ = Parse([]byte("validation: lenient"))
	if _, err := conf.Options(); err == nil {
		t.Error("unknown validation mode")
	}
}

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "m2conv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "m2conv.yaml")
	if err := ioutil.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Validation != "strict" {
		t.Error("validation", conf.Validation)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file")
	}
}
