package converter

import (
	"testing"

	"github.com/binzume/m2conv/geom"
	"github.com/binzume/m2conv/m2"
	"github.com/qmuntal/gltf"
)

func testModel(version uint32) *m2.Model {
	model := &m2.Model{}
	model.Header.Version = version
	model.Header.ModelName = "Test"
	for i := 0; i < 4; i++ {
		model.Vertices = append(model.Vertices, m2.Vertex{
			Position:    geom.Vector3{X: float32(i), Y: 1, Z: 2},
			BoneWeights: [4]uint8{255},
			BoneIndices: [4]uint8{uint8(i % 2)},
			Normal:      geom.Vector3{Z: 1},
		})
	}
	model.Bones = []m2.Bone{
		{Parent: -1, Pivot: geom.Vector3{X: 0, Y: 0, Z: 1}},
		{Parent: 0, Pivot: geom.Vector3{X: 0, Y: 0, Z: 3}},
		{Parent: 5, Pivot: geom.Vector3{X: 1, Y: 0, Z: 0}},
	}
	model.SkinProfiles = []m2.SkinProfile{{
		Indices:   []uint16{0, 1, 2, 3},
		Triangles: []uint16{0, 1, 2, 2, 1, 3},
		Submeshes: []m2.Submesh{{IndexStart: 0, IndexCount: 3}, {IndexStart: 3, IndexCount: 3}},
	}}
	model.Sequences = []m2.Sequence{{ID: 0, Start: 0, End: 1000}, {ID: 4, Start: 2000, End: 3000}}
	return model
}

func TestConvert(t *testing.T) {
	model := testModel(256)
	model.Bones[1].Rotation = &m2.TrackHeader{GlobalSequence: m2.NoGlobalSequence}
	model.Bones[1].RotationKeys = []m2.RotationKey{
		{Sequence: -1, Time: 0, Value: m2.IdentityCompQuat},
		{Sequence: -1, Time: 500, Value: m2.CompQuat{X: 23170, W: 23170}},
		{Sequence: -1, Time: 2500, Value: m2.IdentityCompQuat},
		{Sequence: -1, Time: 2800, Value: m2.IdentityCompQuat},
	}

	doc, err := NewM2ToGLTFConverter(nil).Convert(model)
	if err != nil {
		t.Fatal(err)
	}
	// three bones and the mesh node
	if len(doc.Nodes) != 4 || len(doc.Meshes) != 1 || len(doc.Skins) != 1 {
		t.Fatal("nodes", len(doc.Nodes), len(doc.Meshes), len(doc.Skins))
	}
	if doc.Nodes[1].Translation != [3]float32{0, 0, 2} {
		t.Error("child translation", doc.Nodes[1].Translation)
	}
	if len(doc.Nodes[0].Children) != 1 || doc.Nodes[0].Children[0] != 1 {
		t.Error("hierarchy", doc.Nodes[0].Children)
	}
	// bone 2 has an invalid parent and becomes a root.
	if len(doc.Scenes[0].Nodes) != 3 {
		t.Error("scene roots", doc.Scenes[0].Nodes)
	}
	if len(doc.Meshes[0].Primitives) != 2 {
		t.Error("primitives", len(doc.Meshes[0].Primitives))
	}
	prim := doc.Meshes[0].Primitives[0]
	for _, a := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "JOINTS_0", "WEIGHTS_0"} {
		if _, ok := prim.Attributes[a]; !ok {
			t.Error("missing attribute", a)
		}
	}
	if len(doc.Skins[0].Joints) != 3 {
		t.Error("joints", doc.Skins[0].Joints)
	}
	ibm := doc.Accessors[*doc.Skins[0].InverseBindMatrices]
	if ibm.Type != gltf.AccessorMat4 || ibm.Count != 3 {
		t.Error("inverse bind matrices", ibm.Type, ibm.Count)
	}

	if len(doc.Animations) != 2 {
		t.Fatal("animations", len(doc.Animations))
	}
	a := doc.Animations[0]
	if len(a.Channels) != 1 || a.Channels[0].Target.Path != gltf.TRSRotation || *a.Channels[0].Target.Node != 1 {
		t.Error("channel", a.Channels)
	}
	input := doc.Accessors[*a.Samplers[0].Input]
	if input.Count != 2 || len(input.Max) != 1 || input.Max[0] != 0.5 {
		t.Error("keys in first sequence", input.Count, input.Max)
	}
}

func TestConvertSequenceKeys(t *testing.T) {
	model := testModel(264)
	model.Bones[0].Translation = &m2.TrackHeader{GlobalSequence: m2.NoGlobalSequence}
	model.Bones[0].TranslationKeys = []m2.Vector3Key{
		{Sequence: 1, Time: 0, Value: geom.Vector3{X: 1}},
		{Sequence: 1, Time: 100, Value: geom.Vector3{X: 2}},
		{Sequence: 1, Time: 100, Value: geom.Vector3{X: 3}},
	}
	model.Bones[0].Scale = &m2.TrackHeader{GlobalSequence: 0}
	model.Bones[0].ScaleKeys = []m2.Vector3Key{{Sequence: 1, Time: 0, Value: geom.Vector3{X: 2, Y: 2, Z: 2}}}

	doc, err := NewM2ToGLTFConverter(&M2ToGLTFOption{Scale: 2}).Convert(model)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Animations) != 1 || doc.Animations[0].Name != "seq1_4_0" {
		t.Fatal("animations", doc.Animations)
	}
	a := doc.Animations[0]
	// scale track uses a global sequence and is skipped.
	if len(a.Channels) != 1 || a.Channels[0].Target.Path != gltf.TRSTranslation {
		t.Error("channels", a.Channels)
	}
	// duplicate time is dropped.
	if doc.Accessors[*a.Samplers[0].Output].Count != 2 {
		t.Error("translation keys", doc.Accessors[*a.Samplers[0].Output].Count)
	}
	if doc.Nodes[1].Translation != [3]float32{0, 0, 4} {
		t.Error("scaled rest translation", doc.Nodes[1].Translation)
	}

	doc, _ = NewM2ToGLTFConverter(&M2ToGLTFOption{SkipAnimations: true}).Convert(model)
	if len(doc.Animations) != 0 {
		t.Error("animations should be skipped")
	}
}

func TestConvertStatic(t *testing.T) {
	model := testModel(264)
	model.Bones = nil
	ext := model.SkinProfiles[0]
	model.SkinProfiles = nil

	if _, err := NewM2ToGLTFConverter(nil).Convert(model); err == nil {
		t.Error("nothing to export")
	}

	doc, err := NewM2ToGLTFConverter(&M2ToGLTFOption{Skin: &ext}).Convert(model)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 1 || len(doc.Skins) != 0 || doc.Nodes[0].Skin != nil {
		t.Error("static mesh", doc.Nodes)
	}
	if _, ok := doc.Meshes[0].Primitives[0].Attributes["JOINTS_0"]; ok {
		t.Error("static mesh has no joints")
	}
}

func TestBindMatrices(t *testing.T) {
	model := testModel(256)
	conv := NewM2ToGLTFConverter(&M2ToGLTFOption{Scale: 2})
	mats := conv.bindMatrices(model.Bones)
	if len(mats) != 3 {
		t.Fatal("matrices", len(mats))
	}
	// child rest translation composed with its parent gives the scaled pivot.
	for i, want := range []geom.Vector3{{X: 0, Y: 0, Z: 2}, {X: 0, Y: 0, Z: 6}, {X: 2, Y: 0, Z: 0}} {
		if got := (geom.Vector3{X: mats[i][12], Y: mats[i][13], Z: mats[i][14]}); got != want {
			t.Error("bone", i, got, want)
		}
	}
	inv := mats[1].Inverse()
	if inv[14] != -6 || inv[0] != 1 {
		t.Error("inverse", inv)
	}
}

func TestConvertAxes(t *testing.T) {
	model := testModel(264)
	doc, err := NewM2ToGLTFConverter(&M2ToGLTFOption{Axes: geom.CoordinateUnity}).Convert(model)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Scenes[0].Nodes) != 1 {
		t.Fatal("scene roots", doc.Scenes[0].Nodes)
	}
	root := doc.Nodes[doc.Scenes[0].Nodes[0]]
	// bone 0, bone 2 and the mesh node.
	if root.Name != "root" || len(root.Children) != 3 {
		t.Error("root", root.Name, root.Children)
	}
	var want [16]float32
	geom.CoordinateUnity.Matrix().ToArray(want[:])
	if root.Matrix != want || root.Matrix == gltf.DefaultMatrix {
		t.Error("root matrix", root.Matrix)
	}
	// model data is not reoriented.
	if doc.Nodes[1].Translation != [3]float32{0, 0, 2} {
		t.Error("child translation", doc.Nodes[1].Translation)
	}

	doc, _ = NewM2ToGLTFConverter(nil).Convert(model)
	for _, n := range doc.Nodes {
		if n.Name == "root" {
			t.Error("no root node without axes")
		}
	}
}
