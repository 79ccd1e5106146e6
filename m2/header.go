package m2

import (
	"fmt"
	"strings"

	"github.com/binzume/m2conv/geom"
)

const (
	Magic = "MD20"

	// HeaderMinSize is the length of the baseline header.
	HeaderMinSize = 324

	// VersionSkinFiles is the first version that moves skin profiles out
	// of the model file and drops track range descriptors.
	VersionSkinFiles = 264
)

type ModelFlags uint32

const (
	ModelFlagTiltX                   ModelFlags = 0x1
	ModelFlagTiltY                   ModelFlags = 0x2
	ModelFlagUseTextureCombinerCombo ModelFlags = 0x8
	ModelFlagLoadPhysData            ModelFlags = 0x20
	ModelFlagUnknown80               ModelFlags = 0x80
	ModelFlagCameraRelated           ModelFlags = 0x100
)

var modelFlagNames = []struct {
	flag ModelFlags
	name string
}{
	{ModelFlagTiltX, "tilt_x"},
	{ModelFlagTiltY, "tilt_y"},
	{ModelFlagUseTextureCombinerCombo, "texture_combiner_combos"},
	{ModelFlagLoadPhysData, "load_phys_data"},
	{ModelFlagUnknown80, "unk_0x80"},
	{ModelFlagCameraRelated, "camera_related"},
}

func (f ModelFlags) Has(flag ModelFlags) bool {
	return f&flag != 0
}

// String lists the known flags joined by '|', followed by any unknown bits.
func (f ModelFlags) String() string {
	var names []string
	rest := f
	for _, n := range modelFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

type Bounds struct {
	Min geom.Vector3
	Max geom.Vector3
}

// Header is the top-level descriptor table.
type Header struct {
	Magic   string
	Version uint32
	Name    ArrayDescriptor
	Flags   ModelFlags

	ModelName string

	GlobalSequences         ArrayDescriptor
	Animations              ArrayDescriptor
	AnimationLookup         ArrayDescriptor
	PlayableAnimationLookup ArrayDescriptor // pre-264 only
	Bones                   ArrayDescriptor
	KeyBoneLookup           ArrayDescriptor
	Vertices                ArrayDescriptor
	Views                   ArrayDescriptor // pre-264 only
	SkinProfileCount        uint32          // 264+ only
	Colors                  ArrayDescriptor
	Textures                ArrayDescriptor
	Transparency            ArrayDescriptor
	TextureAnimations       ArrayDescriptor
	ReplaceableTextures     ArrayDescriptor
	RenderFlags             ArrayDescriptor
	BoneLookup              ArrayDescriptor
	TextureLookup           ArrayDescriptor
	TextureUnits            ArrayDescriptor
	TransparencyLookup      ArrayDescriptor
	TextureAnimationLookup  ArrayDescriptor

	BoundingBox     Bounds
	BoundingRadius  float32
	CollisionBox    Bounds
	CollisionRadius float32

	CollisionTriangles ArrayDescriptor
	CollisionVertices  ArrayDescriptor
	CollisionNormals   ArrayDescriptor
	Attachments        ArrayDescriptor
	AttachmentLookup   ArrayDescriptor
	Events             ArrayDescriptor
	Lights             ArrayDescriptor
	Cameras            ArrayDescriptor
	CameraLookup       ArrayDescriptor
	RibbonEmitters     ArrayDescriptor
	ParticleEmitters   ArrayDescriptor
}

func (h *Header) HasValidMagic() bool {
	return h.Magic == Magic
}

// HasTrackRanges reports whether animation tracks carry a ranges descriptor.
func (h *Header) HasTrackRanges() bool {
	return h.Version < VersionSkinFiles
}

// HasEmbeddedSkins reports whether skin profiles live in the model file.
func (h *Header) HasEmbeddedSkins() bool {
	return h.Version < VersionSkinFiles
}

// Offsets of every header field; -1 means absent in that layout.
type headerLayout struct {
	globalSequences, animations, animationLookup, playableAnimationLookup int
	bones, keyBoneLookup, vertices, views, skinProfileCount               int
	colors, textures, transparency, textureAnimations                     int
	replaceableTextures, renderFlags, boneLookup, textureLookup           int
	textureUnits, transparencyLookup, textureAnimationLookup              int
	boundingBox, boundingRadius, collisionBox, collisionRadius            int
	collisionTriangles, collisionVertices, collisionNormals               int
	attachments, attachmentLookup, events, lights                         int
	cameras, cameraLookup, ribbonEmitters, particleEmitters               int
}

// baseline layout; @108 is a reserved descriptor that is skipped.
var baselineLayout = headerLayout{
	globalSequences: 20, animations: 28, animationLookup: 36, playableAnimationLookup: 44,
	bones: 52, keyBoneLookup: 60, vertices: 68, views: 76, skinProfileCount: -1,
	colors: 84, textures: 92, transparency: 100, textureAnimations: 116,
	replaceableTextures: 124, renderFlags: 132, boneLookup: 140, textureLookup: 148,
	textureUnits: 156, transparencyLookup: 164, textureAnimationLookup: 172,
	boundingBox: 180, boundingRadius: 204, collisionBox: 208, collisionRadius: 232,
	collisionTriangles: 236, collisionVertices: 244, collisionNormals: 252,
	attachments: 260, attachmentLookup: 268, events: 276, lights: 284,
	cameras: 292, cameraLookup: 300, ribbonEmitters: 308, particleEmitters: 316,
}

var skinFilesLayout = headerLayout{
	globalSequences: 20, animations: 28, animationLookup: 36, playableAnimationLookup: -1,
	bones: 44, keyBoneLookup: 52, vertices: 60, views: -1, skinProfileCount: 68,
	colors: 72, textures: 80, transparency: 88, textureAnimations: 96,
	replaceableTextures: 104, renderFlags: 112, boneLookup: 120, textureLookup: 128,
	textureUnits: 136, transparencyLookup: 144, textureAnimationLookup: 152,
	boundingBox: 160, boundingRadius: 184, collisionBox: 188, collisionRadius: 212,
	collisionTriangles: 216, collisionVertices: 224, collisionNormals: 232,
	attachments: 240, attachmentLookup: 248, events: 256, lights: 264,
	cameras: 272, cameraLookup: 280, ribbonEmitters: 288, particleEmitters: 296,
}

// headerReader keeps the first read error.
type headerReader struct {
	r   *Reader
	err error
}

func (hr *headerReader) array(off int) ArrayDescriptor {
	if off < 0 || hr.err != nil {
		return ArrayDescriptor{}
	}
	a, err := hr.r.Array(off)
	hr.err = err
	return a
}

func (hr *headerReader) u32(off int) uint32 {
	if off < 0 || hr.err != nil {
		return 0
	}
	v, err := hr.r.U32(off)
	hr.err = err
	return v
}

func (hr *headerReader) f32(off int) float32 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.F32(off)
	hr.err = err
	return v
}

func (hr *headerReader) vector3(off int) geom.Vector3 {
	if hr.err != nil {
		return geom.Vector3{}
	}
	v, err := hr.r.Vector3(off)
	hr.err = err
	return v
}

func (hr *headerReader) bounds(off int) Bounds {
	return Bounds{Min: hr.vector3(off), Max: hr.vector3(off + 12)}
}

// DecodeHeader reads the header at the start of the buffer.
func DecodeHeader(r *Reader) (*Header, error) {
	if r.Len() < HeaderMinSize {
		return nil, fmt.Errorf("%w: %d < %d bytes", ErrTruncatedHeader, r.Len(), HeaderMinSize)
	}
	magic, _ := r.bytes(0, 4)

	hr := &headerReader{r: r}
	h := &Header{Magic: string(magic)}
	h.Version = hr.u32(4)
	h.Name = hr.array(8)
	h.Flags = ModelFlags(hr.u32(16))

	l := &baselineLayout
	if h.Version >= VersionSkinFiles {
		l = &skinFilesLayout
	}
	h.GlobalSequences = hr.array(l.globalSequences)
	h.Animations = hr.array(l.animations)
	h.AnimationLookup = hr.array(l.animationLookup)
	h.PlayableAnimationLookup = hr.array(l.playableAnimationLookup)
	h.Bones = hr.array(l.bones)
	h.KeyBoneLookup = hr.array(l.keyBoneLookup)
	h.Vertices = hr.array(l.vertices)
	h.Views = hr.array(l.views)
	h.SkinProfileCount = hr.u32(l.skinProfileCount)
	h.Colors = hr.array(l.colors)
	h.Textures = hr.array(l.textures)
	h.Transparency = hr.array(l.transparency)
	h.TextureAnimations = hr.array(l.textureAnimations)
	h.ReplaceableTextures = hr.array(l.replaceableTextures)
	h.RenderFlags = hr.array(l.renderFlags)
	h.BoneLookup = hr.array(l.boneLookup)
	h.TextureLookup = hr.array(l.textureLookup)
	h.TextureUnits = hr.array(l.textureUnits)
	h.TransparencyLookup = hr.array(l.transparencyLookup)
	h.TextureAnimationLookup = hr.array(l.textureAnimationLookup)
	h.BoundingBox = hr.bounds(l.boundingBox)
	h.BoundingRadius = hr.f32(l.boundingRadius)
	h.CollisionBox = hr.bounds(l.collisionBox)
	h.CollisionRadius = hr.f32(l.collisionRadius)
	h.CollisionTriangles = hr.array(l.collisionTriangles)
	h.CollisionVertices = hr.array(l.collisionVertices)
	h.CollisionNormals = hr.array(l.collisionNormals)
	h.Attachments = hr.array(l.attachments)
	h.AttachmentLookup = hr.array(l.attachmentLookup)
	h.Events = hr.array(l.events)
	h.Lights = hr.array(l.lights)
	h.Cameras = hr.array(l.cameras)
	h.CameraLookup = hr.array(l.cameraLookup)
	h.RibbonEmitters = hr.array(l.ribbonEmitters)
	h.ParticleEmitters = hr.array(l.particleEmitters)
	if hr.err != nil {
		return nil, fmt.Errorf("m2: header: %w", hr.err)
	}

	if h.Name.Count > 0 {
		// name count includes the terminator.
		h.ModelName, _ = r.CString(int(h.Name.Offset), int(h.Name.Count))
	}
	return h, nil
}
