// Package main provides the Kiln ML Framework CLI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kiln-ml/kiln/autodiff"
	"github.com/kiln-ml/kiln/backend/cpu"
	"github.com/kiln-ml/kiln/board"
	"github.com/kiln-ml/kiln/data"
	"github.com/kiln-ml/kiln/train"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Kiln ML Framework %s\n", version)
			return
		case "demo":
			if err := runDemo(os.Args[2:]); err != nil {
				log.Fatal(err)
			}
			return
		}
	}

	fmt.Println("Kiln ML Framework - Training Loops for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Train a linear regression on synthetic data")
}

// runDemo fits the built-in regressor on generated data and shows the
// loss curves and recovered weights.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	epochs := fs.Int("epochs", 3, "Number of training epochs")
	lr := fs.Float64("lr", 0.03, "SGD learning rate")
	seed := fs.Int64("seed", 42, "Data and weight initialization seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	trueW := []float32{2, -3.4}
	trueB := float32(4.2)

	ds, err := data.NewSyntheticRegression(data.SyntheticRegressionConfig{
		W:    trueW,
		Bias: trueB,
		Seed: *seed,
	}, backend)
	if err != nil {
		return err
	}

	model := train.NewRegressor(backend, train.RegressorConfig{LR: *lr, Seed: *seed})
	brd := board.New()

	trainer, err := train.New(backend, train.Config{
		MaxEpochs: *epochs,
		Board:     brd,
	})
	if err != nil {
		return err
	}

	report, err := trainer.Fit(model, ds)
	if err != nil {
		return err
	}

	fmt.Println()
	if err := brd.Render(os.Stdout); err != nil {
		return err
	}

	w := model.Net().Weight().Tensor().Data()
	b := model.Net().Bias().Tensor().Data()
	fmt.Printf("\ntrue weights    w=%v b=%v\n", trueW, trueB)
	fmt.Printf("learned weights w=[%.4f %.4f] b=[%.4f]\n", w[0], w[1], b[0])
	fmt.Printf("final val loss  %.6f (%s total)\n", report.Final().ValLoss, report.Duration.Round(time.Millisecond))
	return nil
}
