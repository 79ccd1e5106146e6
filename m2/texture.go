package m2

import "fmt"

const (
	TextureSize = 16

	maxTextureNameLength = 260
)

type TextureType uint32

var textureTypeNames = []string{
	"Hardcoded",
	"Skin",
	"Object Skin",
	"Weapon Blade",
	"Weapon Handle",
	"Environment",
	"Character Hair",
	"Character Facial Hair",
	"Skin Extra",
	"UI Skin",
	"Tauren Mane",
	"Monster Skin 1",
	"Monster Skin 2",
	"Monster Skin 3",
	"Item Icon",
}

func (t TextureType) String() string {
	if int(t) < len(textureTypeNames) {
		return textureTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", uint32(t))
}

type TextureFlags uint32

const (
	TextureWrapX TextureFlags = 0x1
	TextureWrapY TextureFlags = 0x2
)

// Texture references an image file. Filename is empty for replaceable
// textures, which are resolved at runtime by Type.
type Texture struct {
	Type         TextureType
	Flags        TextureFlags
	FilenameData ArrayDescriptor
	Filename     string
}

func (p *Parser) decodeTextures(r *Reader, h *Header) ([]Texture, error) {
	n := clampCount(h.Textures.Count, p.opts.Limits.Textures)
	textures := make([]Texture, 0, minInt(n, r.Len()/TextureSize))
	for i := 0; i < n; i++ {
		off := elementOffset(h.Textures, i, TextureSize)
		if !r.Has(off, TextureSize) {
			return textures, fmt.Errorf("texture %d: %w at %#x", i, ErrOutOfBounds, off)
		}
		typ, _ := r.U32(off)
		flags, _ := r.U32(off + 4)
		name, _ := r.Array(off + 8)
		t := Texture{Type: TextureType(typ), Flags: TextureFlags(flags), FilenameData: name}
		if name.Count > 0 {
			var err error
			t.Filename, err = r.CString(int(name.Offset), minInt(int(name.Count), maxTextureNameLength))
			if err != nil {
				p.logf("texture %d filename: %v", i, err)
			}
		}
		textures = append(textures, t)
	}
	return textures, nil
}
