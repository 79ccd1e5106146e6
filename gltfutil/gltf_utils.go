package gltfutil

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// SetAnimationInputBounds fills min/max of animation sampler inputs, which
// glTF requires for time accessors.
func SetAnimationInputBounds(doc *gltf.Document) error {
	done := map[uint32]bool{}
	for _, a := range doc.Animations {
		for _, s := range a.Samplers {
			if s.Input == nil || done[*s.Input] {
				continue
			}
			done[*s.Input] = true
			acr := doc.Accessors[*s.Input]
			data, err := modeler.ReadAccessor(doc, acr, nil)
			if err != nil {
				return err
			}
			times, ok := data.([]float32)
			if !ok {
				return fmt.Errorf("animation input %d is not float", *s.Input)
			}
			if len(times) == 0 {
				continue
			}
			min, max := float32(math.MaxFloat32), float32(-math.MaxFloat32)
			for _, t := range times {
				min = float32(math.Min(float64(min), float64(t)))
				max = float32(math.Max(float64(max), float64(t)))
			}
			acr.Min = []float32{min}
			acr.Max = []float32{max}
		}
	}
	return nil
}
