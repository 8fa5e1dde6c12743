// FILE: cmd/modelkit/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/modelkit-io/modelkit/log"
	"github.com/modelkit-io/modelkit/manifest"
	"github.com/modelkit-io/modelkit/modelmod"
	"github.com/modelkit-io/modelkit/pack"
	"github.com/modelkit-io/modelkit/serve"
	"github.com/modelkit-io/modelkit/train"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	mode, args := os.Args[1], os.Args[2:]
	var err error
	switch mode {
	case "package":
		err = runPackage(args)
	case "serve":
		err = runServe(args)
	case "train":
		err = runTrain(args)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode %q\n", mode)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: modelkit <package|serve|train> [options]")
}

func runPackage(args []string) error {
	fs := flag.NewFlagSet("package", flag.ExitOnError)
	moduleDir := fs.String("module-dir", "", "The directory containing the model module")
	trainScript := fs.String("train-script", pack.DefaultTrainScript,
		"The path from the module dir to the training script")
	serveScript := fs.String("serve-script", pack.DefaultServeScript,
		"The path from the module dir to the serving script")
	logNameFormat := fs.String("log-name-format", manifest.DefaultLogNamingFormat,
		"The format for the log file name")
	logDir := fs.String("log-dir", manifest.DefaultLogDirectory, "The directory to store logs")
	enableTB := fs.Bool("enable-tensorboard", false, "Enable tensorboard logging")
	tbDir := fs.String("tensorboard-dir", manifest.DefaultTensorboardDirectory,
		"The directory to store tensorboard logs")
	manifestFile := fs.String("manifest-file", "",
		"The path of a manifest file to use (overrides other options)")
	output := fs.String("o", pack.DefaultOutput, "The path to save the packaged model")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return pack.Package(pack.Options{
		ModuleDir:            *moduleDir,
		TrainScript:          *trainScript,
		ServeScript:          *serveScript,
		LogNamingFormat:      *logNameFormat,
		LogDirectory:         *logDir,
		EnableTensorboard:    *enableTB,
		TensorboardDirectory: *tbDir,
		ManifestFile:         *manifestFile,
		Output:               *output,
		Logger:               log.NewPrintLogger(os.Stdout, ""),
	})
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	manifestFile := fs.String("manifest-file", "", "An optional manifest file for log settings")
	logConfig := fs.String("log-config", "", "An optional TOML file with logger settings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: modelkit serve [options] <module> <model_dir> [port]")
	}
	name, modelDir := rest[0], rest[1]
	port := serve.DefaultPort
	if len(rest) > 2 {
		p, err := strconv.Atoi(rest[2])
		if err != nil {
			return fmt.Errorf("invalid port %q", rest[2])
		}
		port = p
	}

	logger, cleanup, err := buildLogger(*manifestFile, *logConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	_ = logger.Log("Serve args:", strings.Join(rest, " "))
	module, err := modelmod.Default.Inference(name)
	if err != nil {
		return registeredHint(err)
	}

	srv, err := serve.New(module, modelDir, serve.Options{Port: port, Logger: logger})
	if err != nil {
		return err
	}
	return srv.ListenAndServe()
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	manifestFile := fs.String("manifest-file", "", "An optional manifest file for run settings")
	logConfig := fs.String("log-config", "", "An optional TOML file with logger settings")
	enableTB := fs.Bool("enable-tensorboard", false, "Enable tensorboard logging")
	tbDir := fs.String("tensorboard-dir", manifest.DefaultTensorboardDirectory,
		"The directory to store tensorboard logs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: modelkit train [options] <module> <model_dir> [training_args...]")
	}
	name, modelDir, trainingArgs := rest[0], rest[1], rest[2:]

	opts := train.Options{
		TensorboardEnabled: *enableTB,
		TensorboardDir:     *tbDir,
	}
	logger, cleanup, err := buildLogger(*manifestFile, *logConfig)
	if err != nil {
		return err
	}
	defer cleanup()
	opts.Logger = logger

	if *manifestFile != "" {
		m, err := manifest.Load(*manifestFile, logger)
		if err != nil {
			return err
		}
		opts.TensorboardEnabled = m.EnableTensorboard
		opts.TensorboardDir = m.TensorboardDirectory
	}

	_ = logger.Log("Train args:", strings.Join(rest, " "))
	module, err := modelmod.Default.Training(name)
	if err != nil {
		return registeredHint(err)
	}
	return train.Run(module, modelDir, trainingArgs, opts)
}

// buildLogger returns a batching file logger configured from a TOML config
// file or a manifest, or a stdout logger when neither is given.
func buildLogger(manifestFile, logConfig string) (log.Logger, func(), error) {
	if logConfig != "" {
		cfg, err := log.NewConfigFromFile(logConfig)
		if err != nil {
			return nil, nil, err
		}
		var sched *log.Scheduler
		if cfg.UseAsync {
			sched, err = log.NewScheduler(4)
			if err != nil {
				return nil, nil, err
			}
		}
		logger, err := cfg.BatchLogger(sched)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() {
			_ = logger.Close()
			if sched != nil {
				sched.Release()
			}
		}, nil
	}
	if manifestFile == "" {
		return log.NewPrintLogger(os.Stdout, ""), func() {}, nil
	}
	m, err := manifest.Load(manifestFile, log.NewPrintLogger(os.Stderr, log.LevelWarning))
	if err != nil {
		return nil, nil, err
	}
	logger, err := log.NewBuilder().
		Directory(m.LogDirectory).
		NameFormat(m.LogNamingFormat).
		Mirror(true).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Close() }, nil
}

func registeredHint(err error) error {
	names := modelmod.Default.Names()
	if len(names) == 0 {
		return fmt.Errorf("%w (no modules registered in this build)", err)
	}
	return fmt.Errorf("%w (registered: %s)", err, strings.Join(names, ", "))
}
