// FILE: serve/serve_test.go

package serve

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/modelkit-io/modelkit/log"
	"github.com/modelkit-io/modelkit/modelmod"
)

// upperModule uppercases text payloads.
type upperModule struct {
	loadErr error
}

func (m upperModule) Load(modelDir string, logger log.Logger) (any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return "upper@" + modelDir, nil
}

func (upperModule) Deserialize(data []byte, contentType string, logger log.Logger) (any, error) {
	return string(data), nil
}

func (upperModule) Predict(input, model any, logger log.Logger) (any, error) {
	s := input.(string)
	if s == "explode" {
		return nil, errors.New("prediction blew up")
	}
	return strings.ToUpper(s), nil
}

func (upperModule) Serialize(output any, accepted string, logger log.Logger) ([]byte, string, error) {
	if accepted != modelmod.AcceptAny && !strings.Contains(accepted, "text/plain") {
		return nil, "", modelmod.ErrUnsupportedAccept
	}
	return []byte(output.(string)), "text/plain", nil
}

// startServer hosts the module on an in-memory listener and returns a
// client wired to it.
func startServer(t *testing.T, module modelmod.InferenceModule) *fasthttp.Client {
	t.Helper()
	srv, err := New(module, t.TempDir(), Options{Logger: log.Discard})
	require.NoError(t, err)

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
}

func do(t *testing.T, client *fasthttp.Client, method, path string, body []byte, headers map[string]string) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://model" + path)
	req.Header.SetMethod(method)
	req.SetBody(body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	require.NoError(t, client.Do(req, resp))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func TestPing(t *testing.T) {
	client := startServer(t, upperModule{})
	status, _ := do(t, client, fasthttp.MethodGet, "/ping", nil, nil)
	assert.Equal(t, fasthttp.StatusOK, status)
}

func TestUnknownRoute(t *testing.T) {
	client := startServer(t, upperModule{})
	status, _ := do(t, client, fasthttp.MethodGet, "/other", nil, nil)
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, _ = do(t, client, fasthttp.MethodGet, "/invocations", nil, nil)
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestInvocation(t *testing.T) {
	client := startServer(t, upperModule{})
	status, body := do(t, client, fasthttp.MethodPost, "/invocations", []byte("hello"), nil)
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "HELLO", string(body))
}

func TestInvocationModuleError(t *testing.T) {
	client := startServer(t, upperModule{})
	status, body := do(t, client, fasthttp.MethodPost, "/invocations", []byte("explode"), nil)
	assert.Equal(t, fasthttp.StatusInternalServerError, status)
	assert.Contains(t, string(body), "prediction blew up")
}

func TestInvocationUnsupportedAccept(t *testing.T) {
	client := startServer(t, upperModule{})
	status, body := do(t, client, fasthttp.MethodPost, "/invocations", []byte("hello"),
		map[string]string{fasthttp.HeaderAccept: "application/protobuf"})
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, string(body), "accepted content type")
}

func TestInvocationURIList(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	outputPath := filepath.Join(dir, "output.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("indirect"), 0644))

	client := startServer(t, upperModule{})
	uriList := "file://" + inputPath + "\r\n" + "file://" + outputPath
	status, body := do(t, client, fasthttp.MethodPost, "/invocations", []byte(uriList),
		map[string]string{fasthttp.HeaderContentType: URIListContentType})

	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, string(body), "Output written to")

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "INDIRECT", string(written))
}

func TestInvocationBadURIList(t *testing.T) {
	client := startServer(t, upperModule{})
	status, body := do(t, client, fasthttp.MethodPost, "/invocations", []byte("only-one-uri"),
		map[string]string{fasthttp.HeaderContentType: URIListContentType})
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, string(body), "Invalid URI list")
}

func TestInvocationURIListMissingInput(t *testing.T) {
	dir := t.TempDir()
	client := startServer(t, upperModule{})
	uriList := "file://" + filepath.Join(dir, "absent") + "\r\nfile://" + filepath.Join(dir, "out")
	status, _ := do(t, client, fasthttp.MethodPost, "/invocations", []byte(uriList),
		map[string]string{fasthttp.HeaderContentType: URIListContentType})
	assert.Equal(t, fasthttp.StatusInternalServerError, status)
}

func TestNewLoadFailure(t *testing.T) {
	_, err := New(upperModule{loadErr: errors.New("corrupt artifacts")}, t.TempDir(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt artifacts")
}
