package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/binzume/m2conv/config"
	"github.com/binzume/m2conv/converter"
	"github.com/binzume/m2conv/geom"
	"github.com/binzume/m2conv/m2"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".glb"
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// batch parses inputs on a worker pool and logs one line per file in input order.
func batch(cache *m2.Cache, inputs []string, workers int) {
	lines := make([]string, len(inputs))
	ch := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				model, err := loadModel(cache, inputs[i])
				lines[i] = completenessLine(inputs[i], model, err)
			}
		}()
	}
	for i := range inputs {
		ch <- i
	}
	close(ch)
	wg.Wait()

	for _, l := range lines {
		log.Println(l)
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.m2 [input2.m2 ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	confFile := flag.String("config", "", "config file (.yaml)")
	validation := flag.String("validation", "", "strict, permissive or none")
	coords := flag.String("coords", "", "none, blender, unity or unreal")
	output := flag.String("o", "", "output file (.glb)")
	glb := flag.Bool("glb", false, "write input.glb next to the input")
	batchMode := flag.Bool("batch", false, "parse all inputs and report completeness")
	verbose := flag.Bool("v", false, "log decoder diagnostics")
	scale := flag.Float64("scale", 0, "glb scale")
	axes := flag.String("axes", "", "glb root axes: none, blender, unity or unreal")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}

	conf, err := loadConfig(*confFile)
	if err != nil {
		log.Fatal(err)
	}
	if *validation != "" {
		conf.Validation = *validation
	}
	if *coords != "" {
		conf.Coordinates = *coords
	}
	opts, err := conf.Options()
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		opts.Logger = log.New(os.Stderr, "m2: ", log.LstdFlags)
	}
	parser := m2.NewParser(opts)
	cache := m2.NewCache(parser)

	if *batchMode {
		batch(cache, flag.Args(), conf.WorkerCount())
		return
	}

	input := flag.Arg(0)
	model, err := loadModel(cache, input)
	if err != nil {
		log.Fatal(err)
	}
	logModel(model)

	out := *output
	if out == "" && flag.NArg() > 1 {
		out = flag.Arg(1)
	}
	if out == "" && *glb {
		out = defaultOutputFile(input)
	}
	if out == "" {
		return
	}
	if ext := strings.ToLower(filepath.Ext(out)); ext != ".glb" {
		log.Fatal("Unsupported output type: ", ext)
	}
	if *axes != "" {
		conf.Export.Axes = *axes
	}
	exportAxes, err := geom.ParseCoordinateSystem(conf.Export.Axes)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Coordinates == geom.CoordinateNone && exportAxes == geom.CoordinateNone {
		log.Println("exporting in model coordinates (z-up); try -coords unity or -axes unity for y-up")
	}

	skin, err := loadSkin(parser, model, input)
	if err != nil {
		log.Fatal(err)
	}
	export := &converter.M2ToGLTFOption{
		Scale:       conf.Export.Scale,
		SkinProfile: conf.Export.SkinProfile,
		Axes:        exportAxes,
	}
	if *scale != 0 {
		export.Scale = float32(*scale)
	}
	if conf.Export.Animations != nil {
		export.SkipAnimations = !*conf.Export.Animations
	}

	log.Print("out: ", out)
	if err := saveAsGlb(model, skin, export, out); err != nil {
		log.Fatal(err)
	}
}
