// FILE: train/train.go

// Package train executes a training module against a model directory.
package train

import (
	"fmt"

	"github.com/modelkit-io/modelkit/log"
	"github.com/modelkit-io/modelkit/manifest"
	"github.com/modelkit-io/modelkit/modelmod"
)

// Options configures one training run.
type Options struct {
	TensorboardEnabled bool
	TensorboardDir     string
	Logger             log.Logger
}

// Run trains the module, writing artifacts under modelDir. Training
// failures are logged and returned.
func Run(module modelmod.TrainingModule, modelDir string, args []string, opts Options) error {
	logger := log.OrDiscard(opts.Logger)
	if opts.TensorboardDir == "" {
		opts.TensorboardDir = manifest.DefaultTensorboardDirectory
	}

	_ = logger.Log("Training...")
	err := module.Train(modelDir, args, modelmod.TrainOptions{
		TensorboardEnabled: opts.TensorboardEnabled,
		TensorboardDir:     opts.TensorboardDir,
		Logger:             logger,
	})
	if err != nil {
		_ = logger.LogWith(log.LogOptions{Level: log.LevelError}, "Training failed:", err)
		return fmt.Errorf("train: %w", err)
	}
	_ = logger.Log("Training completed!")
	return nil
}

// Background starts the training run on its own goroutine and returns a
// channel that yields the run's result.
func Background(module modelmod.TrainingModule, modelDir string, args []string, opts Options) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- Run(module, modelDir, args, opts)
	}()
	return done
}
