package dummy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandlerEndpoints(t *testing.T) {
	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	code, body := get(t, srv, "/fast")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Fast response", body)

	code, _ = get(t, srv, "/error")
	assert.Equal(t, http.StatusInternalServerError, code)

	code, body = get(t, srv, "/status/404")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "404 Not Found", body)

	code, _ = get(t, srv, "/status/abc")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv, "/status/999")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlerSlowDelay(t *testing.T) {
	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	start := time.Now()
	code, _ := get(t, srv, "/slow?delay=100ms")
	assert.Equal(t, http.StatusOK, code)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	code, _ = get(t, srv, "/slow?delay=soon")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlerFlaky(t *testing.T) {
	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	seen := map[int]int{}
	for i := 0; i < 200; i++ {
		code, _ := get(t, srv, "/flaky")
		seen[code]++
	}
	for code := range seen {
		assert.Contains(t, []int{200, 429, 500}, code)
	}
	assert.NotZero(t, seen[200])
}

func TestStartServes(t *testing.T) {
	server, err := Start(ServerConfig{Port: 0}, zap.NewNop())
	require.NoError(t, err)
	defer server.Shutdown(context.Background())

	_, port, err := net.SplitHostPort(server.Addr)
	require.NoError(t, err)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%s/status/204", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStartPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()

	server, err := Start(ServerConfig{Port: l.Addr().(*net.TCPAddr).Port}, zap.NewNop())
	assert.Nil(t, server)
	assert.ErrorContains(t, err, "address already in use")
}
