// FILE: modelmod/modelmod_test.go

package modelmod

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelkit-io/modelkit/log"
)

// echoModule reverses its input, exercising both contracts.
type echoModule struct{}

func (echoModule) Load(modelDir string, logger log.Logger) (any, error) {
	return "model@" + modelDir, nil
}

func (echoModule) Deserialize(data []byte, contentType string, logger log.Logger) (any, error) {
	return string(data), nil
}

func (echoModule) Predict(input, model any, logger log.Logger) (any, error) {
	s := input.(string)
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

func (echoModule) Serialize(output any, accepted string, logger log.Logger) ([]byte, string, error) {
	if accepted != AcceptAny && !strings.Contains(accepted, "text/plain") {
		return nil, "", ErrUnsupportedAccept
	}
	return []byte(output.(string)), "text/plain", nil
}

func (echoModule) Train(modelDir string, args []string, opts TrainOptions) error {
	return nil
}

func TestValidateInference(t *testing.T) {
	m, err := ValidateInference(echoModule{})
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = ValidateInference(struct{}{})
	assert.Error(t, err)
}

func TestValidateTraining(t *testing.T) {
	m, err := ValidateTraining(echoModule{})
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = ValidateTraining("not a module")
	assert.Error(t, err)
}

func TestInferenceFlow(t *testing.T) {
	m, err := ValidateInference(echoModule{})
	require.NoError(t, err)

	model, err := m.Load("/models/echo", log.Discard)
	require.NoError(t, err)

	input, err := m.Deserialize([]byte("abc"), DefaultContentType, log.Discard)
	require.NoError(t, err)

	out, err := m.Predict(input, model, log.Discard)
	require.NoError(t, err)

	body, contentType, err := m.Serialize(out, AcceptAny, log.Discard)
	require.NoError(t, err)
	assert.Equal(t, "cba", string(body))
	assert.Equal(t, "text/plain", contentType)

	_, _, err = m.Serialize(out, "application/protobuf", log.Discard)
	assert.ErrorIs(t, err, ErrUnsupportedAccept)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("echo", echoModule{})
	reg.Register("raw", "not a module")

	assert.Equal(t, []string{"echo", "raw"}, reg.Names())

	m, err := reg.Inference("echo")
	require.NoError(t, err)
	require.NotNil(t, m)

	tm, err := reg.Training("echo")
	require.NoError(t, err)
	require.NotNil(t, tm)

	_, err = reg.Inference("raw")
	assert.Error(t, err)

	_, err = reg.Lookup("absent")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()
	reg.Register("m", "first")
	reg.Register("m", "second")

	got, err := reg.Lookup("m")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}
