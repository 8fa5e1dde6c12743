// FILE: pack/pack.go

// Package pack builds distributable model packages. A package is a gzipped
// tar archive holding the module directory under the module name plus a
// manifest.json at the archive root.
package pack

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelkit-io/modelkit/log"
	"github.com/modelkit-io/modelkit/manifest"
)

// ManifestName is the archive entry holding the package manifest.
const ManifestName = "manifest.json"

// Defaults for package options left unset.
const (
	DefaultTrainScript = "train.py"
	DefaultServeScript = "serve.py"
	DefaultOutput      = "model.tar.gz"
)

// Options describes one packaging run. When ManifestFile is set it
// overrides the individual manifest fields.
type Options struct {
	ModuleDir            string
	TrainScript          string
	ServeScript          string
	LogNamingFormat      string
	LogDirectory         string
	EnableTensorboard    bool
	TensorboardDirectory string
	ManifestFile         string
	Output               string
	Logger               log.Logger
}

func (o *Options) normalize() {
	if o.TrainScript == "" {
		o.TrainScript = DefaultTrainScript
	}
	if o.ServeScript == "" {
		o.ServeScript = DefaultServeScript
	}
	if o.LogNamingFormat == "" {
		o.LogNamingFormat = manifest.DefaultLogNamingFormat
	}
	if o.LogDirectory == "" {
		o.LogDirectory = manifest.DefaultLogDirectory
	}
	if o.TensorboardDirectory == "" {
		o.TensorboardDirectory = manifest.DefaultTensorboardDirectory
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
}

// Package archives the module directory and its manifest into opts.Output.
// The training and serving script paths named by the manifest must exist
// under the module directory.
func Package(opts Options) error {
	opts.normalize()
	logger := log.OrDiscard(opts.Logger)

	var m *manifest.Manifest
	if opts.ManifestFile != "" {
		loaded, err := manifest.Load(opts.ManifestFile, logger)
		if err != nil {
			return err
		}
		m = loaded
	} else {
		abs, err := filepath.Abs(opts.ModuleDir)
		if err != nil {
			return fmt.Errorf("pack: failed to resolve module dir: %w", err)
		}
		m = &manifest.Manifest{
			Module:               filepath.Base(abs),
			TrainingScript:       opts.TrainScript,
			ServingScript:        opts.ServeScript,
			LogNamingFormat:      opts.LogNamingFormat,
			LogDirectory:         opts.LogDirectory,
			EnableTensorboard:    opts.EnableTensorboard,
			TensorboardDirectory: opts.TensorboardDirectory,
		}
	}

	trainPath := filepath.Join(opts.ModuleDir, m.TrainingScript)
	if _, err := os.Stat(trainPath); err != nil {
		return fmt.Errorf("pack: unable to locate training script at '%s': %w", trainPath, err)
	}
	servePath := filepath.Join(opts.ModuleDir, m.ServingScript)
	if _, err := os.Stat(servePath); err != nil {
		return fmt.Errorf("pack: unable to locate serving script at '%s': %w", servePath, err)
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("pack: failed to create '%s': %w", opts.Output, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	_ = logger.Log("Packaging module", m.Module, "from", opts.ModuleDir)
	if err := addTree(tw, opts.ModuleDir, m.Module); err != nil {
		return err
	}
	if err := addManifest(tw, m); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("pack: failed to finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("pack: failed to finalize archive: %w", err)
	}
	_ = logger.Log("Package written to", opts.Output)
	return nil
}

// addTree writes every file under dir into the archive rooted at arcname.
func addTree(tw *tar.Writer, dir, arcname string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("pack: failed to walk '%s': %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("pack: failed to relativize '%s': %w", path, err)
		}
		name := arcname
		if rel != "." {
			name = arcname + "/" + filepath.ToSlash(rel)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("pack: failed to stat '%s': %w", path, err)
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("pack: failed to build header for '%s': %w", path, err)
		}
		hdr.Name = name
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("pack: failed to write header for '%s': %w", path, err)
		}
		if d.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("pack: failed to open '%s': %w", path, err)
		}
		defer file.Close()
		if _, err := io.Copy(tw, file); err != nil {
			return fmt.Errorf("pack: failed to archive '%s': %w", path, err)
		}
		return nil
	})
}

// addManifest writes the manifest.json archive entry.
func addManifest(tw *tar.Writer, m *manifest.Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name: ManifestName,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("pack: failed to write manifest header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("pack: failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest extracts and validates the manifest of a packaged model.
func ReadManifest(packagePath string, logger log.Logger) (*manifest.Manifest, error) {
	file, err := os.Open(packagePath)
	if err != nil {
		return nil, fmt.Errorf("pack: failed to open '%s': %w", packagePath, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("pack: failed to read '%s': %w", packagePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pack: failed to read '%s': %w", packagePath, err)
		}
		if strings.TrimPrefix(hdr.Name, "./") == ManifestName {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("pack: failed to read manifest: %w", err)
			}
			return manifest.Parse(data, logger)
		}
	}
	return nil, fmt.Errorf("pack: no %s in '%s'", ManifestName, packagePath)
}
