package m2

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/binzume/m2conv/geom"
)

// Limits caps the number of records decoded per array. Zero fields use
// DefaultLimits.
type Limits struct {
	Vertices       int
	Bones          int
	Keyframes      int
	// ModelKeyframes caps the keys decoded across all bone tracks.
	ModelKeyframes int
	Textures       int
	Sequences      int
	SkinProfiles   int
	Submeshes      int
	Indices        int
}

var DefaultLimits = Limits{
	Vertices:       1 << 20,
	Bones:          4096,
	Keyframes:      1 << 16,
	ModelKeyframes: 1 << 22,
	Textures:       1024,
	Sequences:      4096,
	SkinProfiles:   64,
	Submeshes:      4096,
	Indices:        1 << 21,
}

func (l Limits) withDefaults() Limits {
	fill := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&l.Vertices, DefaultLimits.Vertices)
	fill(&l.Bones, DefaultLimits.Bones)
	fill(&l.Keyframes, DefaultLimits.Keyframes)
	fill(&l.ModelKeyframes, DefaultLimits.ModelKeyframes)
	fill(&l.Textures, DefaultLimits.Textures)
	fill(&l.Sequences, DefaultLimits.Sequences)
	fill(&l.SkinProfiles, DefaultLimits.SkinProfiles)
	fill(&l.Submeshes, DefaultLimits.Submeshes)
	fill(&l.Indices, DefaultLimits.Indices)
	return l
}

type Options struct {
	Validation  ValidationMode
	Coordinates geom.CoordinateSystem
	// RawVertices keeps vertices as stored: no validation, NaN cleanup or
	// coordinate transform.
	RawVertices bool
	// Concurrent decodes components in parallel.
	Concurrent bool
	Limits     Limits
	// Logger receives decode diagnostics. nil disables logging.
	Logger *log.Logger
}

// Parser is a parse session. It holds no state between Parse calls and is
// safe for concurrent use.
type Parser struct {
	opts Options
}

func NewParser(options *Options) *Parser {
	if options == nil {
		options = &Options{}
	}
	opts := *options
	opts.Limits = opts.Limits.withDefaults()
	return &Parser{opts: opts}
}

func (p *Parser) Options() Options {
	return p.opts
}

func (p *Parser) logf(format string, args ...interface{}) {
	if p.opts.Logger != nil {
		p.opts.Logger.Printf(format, args...)
	}
}

type Component int

const (
	ComponentVertices Component = iota
	ComponentBones
	ComponentTextures
	ComponentSequences
	ComponentSkinProfiles
)

var componentNames = [...]string{"vertices", "bones", "textures", "sequences", "skin_profiles"}

func (c Component) String() string {
	if int(c) < len(componentNames) {
		return componentNames[c]
	}
	return fmt.Sprintf("Component(%d)", int(c))
}

type ComponentStatus struct {
	Component Component
	Declared  uint32
	Decoded   int
}

func (s ComponentStatus) IsDeclared() bool {
	return s.Declared > 0
}

func (s ComponentStatus) IsParsed() bool {
	return s.Decoded > 0
}

// Completeness lists, per component, what the header declared and what was
// decoded.
type Completeness []ComponentStatus

// Ratio returns the fraction of declared components that produced records.
// A model that declares nothing is complete.
func (c Completeness) Ratio() float64 {
	declared, parsed := c.counts()
	if declared == 0 {
		return 1
	}
	return float64(parsed) / float64(declared)
}

func (c Completeness) counts() (declared, parsed int) {
	for _, s := range c {
		if s.IsDeclared() {
			declared++
			if s.IsParsed() {
				parsed++
			}
		}
	}
	return
}

func (c Completeness) String() string {
	declared, parsed := c.counts()
	return fmt.Sprintf("%d/%d", parsed, declared)
}

// Detail describes every component as name=decoded/declared.
func (c Completeness) Detail() string {
	var parts []string
	for _, s := range c {
		parts = append(parts, fmt.Sprintf("%v=%d/%d", s.Component, s.Decoded, s.Declared))
	}
	return strings.Join(parts, " ")
}

// Model is a decoded M2 file. It does not reference the source buffer.
type Model struct {
	Header       Header
	Vertices     []Vertex
	Bones        []Bone
	Textures     []Texture
	Sequences    []Sequence
	SkinProfiles []SkinProfile

	ValidationStats ValidationStats
	Completeness    Completeness
	// Warnings holds the reason each truncated component stopped early.
	Warnings []string
}

func (m *Model) Version() uint32 {
	return m.Header.Version
}

// RootBones returns the indices of bones without a parent.
func (m *Model) RootBones() []int {
	var roots []int
	for i := range m.Bones {
		if m.Bones[i].IsRoot() {
			roots = append(roots, i)
		}
	}
	return roots
}

// Parse decodes data with default options.
func Parse(data []byte) (*Model, error) {
	return NewParser(nil).Parse(data)
}

// Parse decodes data. Only a buffer too short for the header is an error;
// an unexpected magic and truncated components are reported in
// Model.Warnings.
func (p *Parser) Parse(data []byte) (*Model, error) {
	r := NewReader(data)
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	p.logf("%s version %d %q", h.Magic, h.Version, h.ModelName)

	m := &Model{Header: *h}
	if !h.HasValidMagic() {
		w := fmt.Errorf("%w: %q", ErrBadMagic, h.Magic)
		p.logf("warning: %v", w)
		m.Warnings = append(m.Warnings, w.Error())
	}
	warnings := make([]error, 5)
	decoders := []func(){
		func() {
			m.Vertices, m.ValidationStats, warnings[ComponentVertices] = p.decodeVertices(r, h)
		},
		func() { m.Bones, warnings[ComponentBones] = p.decodeBones(r, h) },
		func() { m.Textures, warnings[ComponentTextures] = p.decodeTextures(r, h) },
		func() { m.Sequences, warnings[ComponentSequences] = p.decodeSequences(r, h) },
		func() { m.SkinProfiles, warnings[ComponentSkinProfiles] = p.decodeSkinProfiles(r, h) },
	}
	if p.opts.Concurrent {
		var wg sync.WaitGroup
		for _, d := range decoders {
			wg.Add(1)
			go func(d func()) {
				defer wg.Done()
				d()
			}(d)
		}
		wg.Wait()
	} else {
		for _, d := range decoders {
			d()
		}
	}

	for _, w := range warnings {
		if w != nil {
			p.logf("warning: %v", w)
			m.Warnings = append(m.Warnings, w.Error())
		}
	}

	views := uint32(0)
	if h.HasEmbeddedSkins() {
		views = h.Views.Count
	}
	m.Completeness = Completeness{
		{ComponentVertices, h.Vertices.Count, len(m.Vertices)},
		{ComponentBones, h.Bones.Count, len(m.Bones)},
		{ComponentTextures, h.Textures.Count, len(m.Textures)},
		{ComponentSequences, h.Animations.Count, len(m.Sequences)},
		{ComponentSkinProfiles, views, len(m.SkinProfiles)},
	}
	return m, nil
}
