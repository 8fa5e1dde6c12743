// FILE: modelmod/modelmod.go

// Package modelmod defines the contracts a model module implements to be
// trained and served, and a process-wide registry modules register into.
package modelmod

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/modelkit-io/modelkit/log"
)

// DefaultContentType is assumed for inference input when the request does
// not name one.
const DefaultContentType = "application/octet-stream"

// AcceptAny matches any output content type.
const AcceptAny = "*/*"

var (
	// ErrUnsupportedAccept is returned by Serialize when the output cannot
	// be rendered in any content type the client accepts.
	ErrUnsupportedAccept = errors.New("modelmod: no accepted content type supported")

	// ErrNotRegistered is returned when a module name has no registration.
	ErrNotRegistered = errors.New("modelmod: module not registered")
)

// InferenceModule serves prediction requests. Load runs once per process,
// the remaining methods run once per request.
type InferenceModule interface {
	// Load restores the model from its artifact directory.
	Load(modelDir string, logger log.Logger) (any, error)

	// Deserialize decodes a request body of the given content type.
	Deserialize(data []byte, contentType string, logger log.Logger) (any, error)

	// Predict runs the model on deserialized input.
	Predict(input, model any, logger log.Logger) (any, error)

	// Serialize encodes the prediction output into a content type the
	// client accepts. It returns the body, the chosen content type, or
	// ErrUnsupportedAccept when accepted rules out every encoding.
	Serialize(output any, accepted string, logger log.Logger) ([]byte, string, error)
}

// TrainOptions carries the optional settings of a training run.
type TrainOptions struct {
	TensorboardEnabled bool
	TensorboardDir     string
	Logger             log.Logger
}

// TrainingModule produces model artifacts.
type TrainingModule interface {
	// Train fits the model and writes artifacts under modelDir.
	Train(modelDir string, args []string, opts TrainOptions) error
}

// ValidateInference checks that obj fulfills the inference contract.
func ValidateInference(obj any) (InferenceModule, error) {
	m, ok := obj.(InferenceModule)
	if !ok {
		return nil, fmt.Errorf("modelmod: %T is not a valid inference module", obj)
	}
	return m, nil
}

// ValidateTraining checks that obj fulfills the training contract.
func ValidateTraining(obj any) (TrainingModule, error) {
	m, ok := obj.(TrainingModule)
	if !ok {
		return nil, fmt.Errorf("modelmod: %T is not a valid training module", obj)
	}
	return m, nil
}

// Registry maps module names to their implementations. Modules register
// themselves at init time and are looked up by the name recorded in the
// package manifest.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]any)}
}

// Register stores a module under name, replacing any previous entry.
func (r *Registry) Register(name string, module any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = module
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return m, nil
}

// Inference resolves name to a validated inference module.
func (r *Registry) Inference(name string) (InferenceModule, error) {
	m, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ValidateInference(m)
}

// Training resolves name to a validated training module.
func (r *Registry) Training(name string) (TrainingModule, error) {
	m, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ValidateTraining(m)
}

// Names lists registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Register stores a module in the default registry.
func Register(name string, module any) {
	Default.Register(name, module)
}
