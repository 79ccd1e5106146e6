package converter

import (
	"fmt"
	"log"

	"github.com/binzume/m2conv/geom"
	"github.com/binzume/m2conv/gltfutil"
	"github.com/binzume/m2conv/m2"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type M2ToGLTFOption struct {
	Scale float32
	// SkinProfile selects the level of detail used for the mesh.
	SkinProfile int
	// Skin overrides the model's skin profiles. Models from version 264
	// keep them in separate .skin files.
	Skin           *m2.SkinProfile
	SkipAnimations bool
	// Axes wraps the scene in a root node that remaps model axes. Unlike
	// m2.Options.Coordinates the decoded data is left untouched.
	Axes geom.CoordinateSystem
}

type m2ToGltf struct {
	*M2ToGLTFOption
	*gltf.Document

	transform *geom.Matrix4
	boneNodes []uint32
}

func NewM2ToGLTFConverter(options *M2ToGLTFOption) *m2ToGltf {
	if options == nil {
		options = &M2ToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1
	}
	return &m2ToGltf{
		M2ToGLTFOption: options,
		Document:       gltf.NewDocument(),
		transform:      geom.NewScaleMatrix4(options.Scale, options.Scale, options.Scale),
	}
}

func (m *m2ToGltf) addMatrices(mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = m[0]
		a[i*4+1] = m[1]
		a[i*4+2] = m[2]
		a[i*4+3] = m[3]
	}
	acc := modeler.WriteTangent(m.Document, a)
	m.Accessors[acc].Type = gltf.AccessorMat4
	m.Accessors[acc].Count /= 4
	m.BufferViews[*m.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// validParent returns the parent index of bone i, or -1. Parents must
// precede their children, which also rules out cycles.
func validParent(bones []m2.Bone, i int) int {
	p := int(bones[i].Parent)
	if p < 0 || p >= i {
		return -1
	}
	return p
}

func (m *m2ToGltf) restTranslation(bones []m2.Bone, i int) geom.Vector3 {
	pos := m.transform.ApplyTo(&bones[i].Pivot)
	if p := validParent(bones, i); p >= 0 {
		pos = pos.Sub(m.transform.ApplyTo(&bones[p].Pivot))
	}
	return *pos
}

func (m *m2ToGltf) addBoneNodes(bones []m2.Bone) {
	m.boneNodes = make([]uint32, len(bones))
	for i := range bones {
		rest := m.restTranslation(bones, i)
		m.boneNodes[i] = uint32(len(m.Nodes))
		m.Nodes = append(m.Nodes, &gltf.Node{
			Name:        fmt.Sprintf("bone%d", i),
			Translation: rest.ToArray(),
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       [3]float32{1, 1, 1},
		})
	}
	for i, b := range bones {
		if p := validParent(bones, i); p >= 0 {
			parentNode := m.Nodes[m.boneNodes[p]]
			parentNode.Children = append(parentNode.Children, m.boneNodes[i])
		} else {
			if int(b.Parent) >= 0 {
				log.Println("bone", i, "has invalid parent", b.Parent)
			}
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, m.boneNodes[i])
		}
	}
}

// bindMatrices returns the rest pose of every bone in model space, composed
// down the node hierarchy.
func (m *m2ToGltf) bindMatrices(bones []m2.Bone) []*geom.Matrix4 {
	mats := make([]*geom.Matrix4, len(bones))
	for i := range bones {
		rest := m.restTranslation(bones, i)
		local := geom.NewTranslateMatrix4(rest.X, rest.Y, rest.Z)
		if p := validParent(bones, i); p >= 0 {
			mats[i] = mats[p].Mul(local)
		} else {
			mats[i] = local
		}
	}
	return mats
}

func (m *m2ToGltf) addSkin(bones []m2.Bone) uint32 {
	invmats := make([][4][4]float32, len(bones))
	var a [16]float32
	for i, mat := range m.bindMatrices(bones) {
		mat.Inverse().ToArray(a[:])
		for c := 0; c < 4; c++ {
			copy(invmats[i][c][:], a[c*4:c*4+4])
		}
	}
	m.Skins = append(m.Skins, &gltf.Skin{
		Joints:              m.boneNodes,
		InverseBindMatrices: gltf.Index(m.addMatrices(invmats)),
	})
	return uint32(len(m.Skins) - 1)
}

func (m *m2ToGltf) skinProfile(model *m2.Model) *m2.SkinProfile {
	if m.Skin != nil {
		return m.Skin
	}
	if m.SkinProfile >= 0 && m.SkinProfile < len(model.SkinProfiles) {
		return &model.SkinProfiles[m.SkinProfile]
	}
	return nil
}

// submeshTriangles splits the triangle list by submesh. Level holds the
// high bits of the start index for large meshes.
func submeshTriangles(sp *m2.SkinProfile) [][]uint16 {
	if len(sp.Submeshes) == 0 {
		return [][]uint16{sp.Triangles}
	}
	var ranges [][]uint16
	for _, s := range sp.Submeshes {
		start := int(s.IndexStart) + int(s.Level)<<16
		end := start + int(s.IndexCount)
		if start >= len(sp.Triangles) {
			continue
		}
		if end > len(sp.Triangles) {
			end = len(sp.Triangles)
		}
		ranges = append(ranges, sp.Triangles[start:end])
	}
	return ranges
}

func (m *m2ToGltf) convertMesh(model *m2.Model, sp *m2.SkinProfile, skinned bool) *gltf.Mesh {
	n := len(sp.Indices)
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	texcoords := make([][2]float32, n)
	joints := make([][4]uint16, n)
	weights := make([][4]float32, n)
	invalid := 0
	for i, vi := range sp.Indices {
		if int(vi) >= len(model.Vertices) {
			invalid++
			normals[i] = [3]float32{0, 0, 1}
			weights[i][0] = 1
			continue
		}
		v := &model.Vertices[vi]
		positions[i] = m.transform.ApplyTo(&v.Position).ToArray()
		normals[i] = v.Normal.ToArray()
		texcoords[i] = v.TexCoords.ToArray()
		sum := v.WeightSum()
		for j := 0; j < 4; j++ {
			if int(v.BoneIndices[j]) < len(model.Bones) {
				joints[i][j] = uint16(v.BoneIndices[j])
			}
			if sum > 0 {
				weights[i][j] = float32(v.BoneWeights[j]) / float32(sum)
			}
		}
		if sum == 0 {
			weights[i] = [4]float32{1, 0, 0, 0}
			joints[i] = [4]uint16{}
		}
	}
	if invalid > 0 {
		log.Println("skin profile references", invalid, "missing vertices")
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(m.Document, positions),
		"NORMAL":     modeler.WriteNormal(m.Document, normals),
		"TEXCOORD_0": modeler.WriteTextureCoord(m.Document, texcoords),
	}
	if skinned {
		attributes["JOINTS_0"] = modeler.WriteJoints(m.Document, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(m.Document, weights)
	}

	mesh := &gltf.Mesh{Name: model.Header.ModelName}
	for _, tris := range submeshTriangles(sp) {
		var indices []uint32
		for f := 0; f+2 < len(tris); f += 3 {
			if int(tris[f]) >= n || int(tris[f+1]) >= n || int(tris[f+2]) >= n {
				continue
			}
			indices = append(indices, uint32(tris[f]), uint32(tris[f+1]), uint32(tris[f+2]))
		}
		if len(indices) == 0 {
			continue
		}
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices)),
			Attributes: attributes,
		})
	}
	return mesh
}

// keyTime maps a key to seconds within sequence seq. Before version 264 all
// clips share one timeline; later keys are grouped per sequence.
func keyTime(legacy bool, seq int, s *m2.Sequence, keySeq int, t uint32) (float32, bool) {
	if legacy {
		if t < s.Start || t > s.End {
			return 0, false
		}
		return float32(t-s.Start) / 1000, true
	}
	if keySeq != seq {
		return 0, false
	}
	return float32(t) / 1000, true
}

type channelBuilder struct {
	times  []float32
	values [][4]float32
}

func (c *channelBuilder) add(t float32, v [4]float32) {
	if len(c.times) > 0 && t <= c.times[len(c.times)-1] {
		return
	}
	c.times = append(c.times, t)
	c.values = append(c.values, v)
}

func (m *m2ToGltf) addChannel(a *gltf.Animation, node uint32, path gltf.TRSProperty, c *channelBuilder) {
	if len(c.times) == 0 {
		return
	}
	keysAcc := modeler.WriteAccessor(m.Document, gltf.TargetArrayBuffer, c.times)
	var samplesAcc uint32
	if path == gltf.TRSRotation {
		samplesAcc = modeler.WriteTangent(m.Document, c.values)
	} else {
		v3 := make([][3]float32, len(c.values))
		for i, v := range c.values {
			v3[i] = [3]float32{v[0], v[1], v[2]}
		}
		samplesAcc = modeler.WritePosition(m.Document, v3)
	}
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(keysAcc),
		Output:        gltf.Index(samplesAcc),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

func (m *m2ToGltf) addAnimations(model *m2.Model) {
	legacy := model.Header.HasTrackRanges()
	for si := range model.Sequences {
		s := &model.Sequences[si]
		a := &gltf.Animation{Name: fmt.Sprintf("seq%d_%d_%d", si, s.ID, s.SubID)}
		for bi := range model.Bones {
			b := &model.Bones[bi]
			if b.Translation != nil && !b.Translation.UsesGlobalSequence() {
				rest := m.restTranslation(model.Bones, bi)
				var c channelBuilder
				for _, k := range b.TranslationKeys {
					if t, ok := keyTime(legacy, si, s, k.Sequence, k.Time); ok {
						p := rest.Add(k.Value.Scale(m.Scale))
						c.add(t, [4]float32{p.X, p.Y, p.Z, 0})
					}
				}
				m.addChannel(a, m.boneNodes[bi], gltf.TRSTranslation, &c)
			}
			if b.Rotation != nil && !b.Rotation.UsesGlobalSequence() {
				var c channelBuilder
				for _, k := range b.RotationKeys {
					if t, ok := keyTime(legacy, si, s, k.Sequence, k.Time); ok {
						q := k.Value.NormalizeFloat()
						c.add(t, q.ToArray())
					}
				}
				m.addChannel(a, m.boneNodes[bi], gltf.TRSRotation, &c)
			}
			if b.Scale != nil && !b.Scale.UsesGlobalSequence() {
				var c channelBuilder
				for _, k := range b.ScaleKeys {
					if t, ok := keyTime(legacy, si, s, k.Sequence, k.Time); ok {
						c.add(t, [4]float32{k.Value.X, k.Value.Y, k.Value.Z, 0})
					}
				}
				m.addChannel(a, m.boneNodes[bi], gltf.TRSScale, &c)
			}
		}
		if len(a.Channels) > 0 {
			m.Animations = append(m.Animations, a)
		}
	}
}

// addAxesRoot moves the scene roots under one node carrying the axis matrix.
// Inverse bind matrices stay in model space since glTF ignores the
// transform of the skinned mesh node.
func (m *m2ToGltf) addAxesRoot() {
	root := &gltf.Node{
		Name:     "root",
		Children: m.Scenes[0].Nodes,
	}
	m.Axes.Matrix().ToArray(root.Matrix[:])
	m.Nodes = append(m.Nodes, root)
	m.Scenes[0].Nodes = []uint32{uint32(len(m.Nodes) - 1)}
}

// Convert builds a glTF document from a parsed model.
func (m *m2ToGltf) Convert(model *m2.Model) (*gltf.Document, error) {
	skinned := len(model.Bones) > 0
	if skinned {
		m.addBoneNodes(model.Bones)
	}

	sp := m.skinProfile(model)
	if sp == nil {
		log.Println("no skin profile; mesh skipped")
	} else {
		mesh := m.convertMesh(model, sp, skinned)
		if len(mesh.Primitives) > 0 {
			node := &gltf.Node{Name: model.Header.ModelName, Mesh: gltf.Index(uint32(len(m.Meshes)))}
			m.Meshes = append(m.Meshes, mesh)
			if skinned {
				node.Skin = gltf.Index(m.addSkin(model.Bones))
			}
			m.Nodes = append(m.Nodes, node)
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, uint32(len(m.Nodes)-1))
		}
	}

	if skinned && !m.SkipAnimations {
		m.addAnimations(model)
		if err := gltfutil.SetAnimationInputBounds(m.Document); err != nil {
			return nil, err
		}
	}
	if len(m.Nodes) == 0 {
		return nil, fmt.Errorf("m2gltf: nothing to export")
	}
	if m.Axes != geom.CoordinateNone {
		m.addAxesRoot()
	}
	return m.Document, nil
}
