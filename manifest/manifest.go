// FILE: manifest/manifest.go

// Package manifest defines the model package manifest and its validation
// rules. A manifest is a flat JSON object describing how a packaged model
// module is trained and served.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/modelkit-io/modelkit/log"
)

// Defaults applied when a manifest omits an argument.
const (
	DefaultLogDirectory         = "logs"
	DefaultLogNamingFormat      = "2006-01-02T15-04-05.log"
	DefaultTensorboardDirectory = "tb_logs"
)

// Manifest holds the validated arguments of a model package.
type Manifest struct {
	Module               string `json:"module"`
	TrainingScript       string `json:"trainingScript"`
	ServingScript        string `json:"servingScript"`
	LogDirectory         string `json:"logDirectory"`
	LogNamingFormat      string `json:"logNamingFormat"`
	EnableTensorboard    bool   `json:"enableTensorboard"`
	TensorboardDirectory string `json:"tensorboardDirectory"`
}

// JSONTypeOf reports the JSON type name of a decoded value. Values that
// have no JSON equivalent yield fallback, or an error when fallback is
// empty.
func JSONTypeOf(val any, fallback string) (string, error) {
	switch val.(type) {
	case bool:
		return "boolean", nil
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return "number", nil
	case string:
		return "string", nil
	case []any:
		return "array", nil
	case map[string]any:
		return "object", nil
	case nil:
		return "null", nil
	default:
		if fallback != "" {
			return fallback, nil
		}
		return "", fmt.Errorf("manifest: value of type %T is not a valid JSON type", val)
	}
}

// argSpec is one row of the manifest validation table. Arguments whose
// default does not satisfy their own type set are effectively required.
type argSpec struct {
	key    string
	types  []string
	def    any
	assign func(m *Manifest, val any)
}

func asString(val any) string {
	s, _ := val.(string)
	return s
}

var manifestArgs = []argSpec{
	{"trainingScript", []string{"string", "null"}, nil,
		func(m *Manifest, v any) { m.TrainingScript = asString(v) }},
	{"servingScript", []string{"string", "null"}, nil,
		func(m *Manifest, v any) { m.ServingScript = asString(v) }},
	{"module", []string{"string"}, "",
		func(m *Manifest, v any) { m.Module = asString(v) }},
	{"logDirectory", []string{"string"}, DefaultLogDirectory,
		func(m *Manifest, v any) { m.LogDirectory = asString(v) }},
	{"logNamingFormat", []string{"string"}, DefaultLogNamingFormat,
		func(m *Manifest, v any) { m.LogNamingFormat = asString(v) }},
	{"enableTensorboard", []string{"boolean"}, false,
		func(m *Manifest, v any) { m.EnableTensorboard, _ = v.(bool) }},
	{"tensorboardDirectory", []string{"string"}, DefaultTensorboardDirectory,
		func(m *Manifest, v any) { m.TensorboardDirectory = asString(v) }},
}

// Validate checks a raw manifest object against the argument table.
// Type mismatches are logged at ERROR level and fail validation.
// Unrecognized arguments are logged at WARNING level and dropped.
func Validate(raw map[string]any, logger log.Logger) (*Manifest, error) {
	logger = log.OrDiscard(logger)
	m := &Manifest{}
	for _, spec := range manifestArgs {
		val, ok := raw[spec.key]
		if !ok {
			val = spec.def
		}
		valType, err := JSONTypeOf(val, "<unknown>")
		if err != nil {
			return nil, err
		}
		if !contains(spec.types, valType) {
			_ = logger.LogWith(log.LogOptions{Level: log.LevelError}, fmt.Sprintf(
				"Manifest argument %q with value %q has invalid type %q. Expected: %s",
				spec.key, fmt.Sprint(val), valType, strings.Join(spec.types, " | ")))
			return nil, fmt.Errorf("manifest: argument %q has invalid type %q", spec.key, valType)
		}
		spec.assign(m, val)
	}
	for key := range raw {
		if !knownArg(key) {
			_ = logger.LogWith(log.LogOptions{Level: log.LevelWarning},
				fmt.Sprintf("Unrecognized argument %q", key))
		}
	}
	return m, nil
}

// Parse decodes and validates a JSON manifest document.
func Parse(data []byte, logger log.Logger) (*Manifest, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("manifest: failed to parse: %w", err)
	}
	return Validate(raw, logger)
}

// Load reads and validates a manifest file.
func Load(path string, logger log.Logger) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to read '%s': %w", path, err)
	}
	return Parse(data, logger)
}

// Encode renders the manifest as JSON.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to encode: %w", err)
	}
	return data, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func knownArg(key string) bool {
	for _, spec := range manifestArgs {
		if spec.key == key {
			return true
		}
	}
	return false
}
