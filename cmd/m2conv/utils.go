package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/m2conv/converter"
	"github.com/binzume/m2conv/m2"
	"github.com/qmuntal/gltf"
)

func loadModel(cache *m2.Cache, input string) (*m2.Model, error) {
	data, err := ioutil.ReadFile(input)
	if err != nil {
		return nil, err
	}
	return cache.Parse(data)
}

// skinFile returns the first external skin file of a model (Name00.skin).
func skinFile(input string) string {
	return input[0:len(input)-len(filepath.Ext(input))] + "00.skin"
}

func loadSkin(parser *m2.Parser, model *m2.Model, input string) (*m2.SkinProfile, error) {
	if model.Header.HasEmbeddedSkins() || model.Header.SkinProfileCount == 0 {
		return nil, nil
	}
	path := skinFile(input)
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		log.Println("skin file not found:", path)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return parser.ParseSkin(data)
}

func saveAsGlb(model *m2.Model, skin *m2.SkinProfile, options *converter.M2ToGLTFOption, output string) error {
	opt := *options
	opt.Skin = skin
	doc, err := converter.NewM2ToGLTFConverter(&opt).Convert(model)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, output)
}

func logModel(model *m2.Model) {
	h := &model.Header
	log.Printf("Name: %q Version: %d Flags: %v", h.ModelName, h.Version, h.Flags)
	log.Printf("Bounds: %v - %v radius %.2f", h.BoundingBox.Min, h.BoundingBox.Max, h.BoundingRadius)
	log.Println("Vertices:", len(model.Vertices), "Bones:", len(model.Bones), "Textures:", len(model.Textures),
		"Sequences:", len(model.Sequences), "SkinProfiles:", len(model.SkinProfiles))
	for i, t := range model.Textures {
		log.Printf("  texture %d: %v %q", i, t.Type, t.Filename)
	}
	animated := 0
	for _, b := range model.Bones {
		if len(b.TranslationKeys)+len(b.RotationKeys)+len(b.ScaleKeys) > 0 {
			animated++
		}
	}
	log.Println("Animated bones:", animated, "Roots:", len(model.RootBones()))
	log.Println("Validation:", model.ValidationStats)
	log.Println("Completeness:", model.Completeness, model.Completeness.Detail())
	for _, w := range model.Warnings {
		log.Println("WARNING:", w)
	}
}

func completenessLine(input string, model *m2.Model, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: ERROR %v", input, err)
	}
	return fmt.Sprintf("%s: v%d %s (%.0f%%) %s", filepath.Base(input), model.Version(),
		model.Completeness, model.Completeness.Ratio()*100, strings.Join(model.Warnings, "; "))
}
