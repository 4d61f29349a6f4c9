// Command moons trains a small flow on the two-moons dataset, then writes
// the learned samples, the training data and the flow architecture next to
// the binary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	nvp "github.com/gorgonia/nvp"
	"github.com/gorgonia/nvp/distribution"
	"github.com/gorgonia/nvp/encoding/plot"
	"github.com/gorgonia/nvp/toy"
	"gorgonia.org/tensor"
)

var (
	depth      = flag.Int("depth", 4, "number of paired coupling blocks")
	batchSize  = flag.Int("batch", 100, "batch size")
	batches    = flag.Int("batches", 10, "batches per iteration")
	iterations = flag.Int("iters", 500, "training iterations")
	learnRate  = flag.Float64("lr", 0.01, "learning rate")
	seed       = flag.Int64("seed", 1337, "seed for masks, data and prior")
	outDir     = flag.String("out", ".", "output directory")
)

func main() {
	flag.Parse()

	data := toy.Moons((*batches)*(*batchSize), 0.05, *seed)

	prior, err := distribution.NewNormal(2, 0, 1, *seed)
	if err != nil {
		log.Fatal(err)
	}

	conf := nvp.DefaultConf(2)
	conf.Depth = *depth
	conf.BatchSize = *batchSize
	conf.Seed = *seed

	gen := nvp.New(conf, prior)
	if err := gen.Init(); err != nil {
		log.Fatalf("%+v", err)
	}
	defer gen.Close()

	before := firstBatchLoss(gen, data, *batchSize)
	log.Printf("initial NLL %.4f", before)

	if err := nvp.Train(gen, data, *batches, *iterations, *learnRate); err != nil {
		log.Fatalf("%+v", err)
	}
	after := firstBatchLoss(gen, data, *batchSize)
	log.Printf("final NLL %.4f (Δ %.4f)", after, before-after)

	samples, err := gen.Sample(1000)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	sc := plot.NewScatter(480, 480)
	writePNG(sc, *outDir+"/data.png", data, "two moons (training data)")
	writePNG(sc, *outDir+"/samples.png", samples, fmt.Sprintf("flow samples, NLL %.3f", after))

	dot, err := nvp.ToDot(gen.Flow())
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := os.WriteFile(*outDir+"/flow.dot", []byte(dot), 0644); err != nil {
		log.Fatal(err)
	}
}

type rs struct{ start, end int }

func (s rs) Start() int { return s.start }
func (s rs) End() int   { return s.end }
func (s rs) Step() int  { return 1 }

func firstBatchLoss(gen *nvp.Generator, data *tensor.Dense, batch int) float32 {
	view, err := data.Slice(rs{0, batch})
	if err != nil {
		log.Fatal(err)
	}
	loss, err := gen.Loss(view.(*tensor.Dense))
	if err != nil {
		log.Fatalf("%+v", err)
	}
	return loss
}

func writePNG(sc *plot.Scatter, path string, pts *tensor.Dense, caption string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := sc.EncodePNG(f, pts, caption); err != nil {
		log.Fatalf("%+v", err)
	}
}
