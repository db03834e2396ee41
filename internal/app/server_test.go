package app

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomate/internal/config"
	"gomate/internal/handler"
	"gomate/internal/logger"
	"gomate/internal/reachability"
)

func nextData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimSpace(data)
		}
	}
}

func TestServer_StreamOutlivesWriteTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	monitor := reachability.NewMonitor(logger.Nop())
	router := gin.New()
	router.GET("/v1/connectivity/stream", handler.NewConnectivityHandler(monitor).StreamConnectivity)

	server := NewServer(config.ServerConfig{WriteTimeout: 100 * time.Millisecond}, router, logger.Nop())
	srv := httptest.NewUnstartedServer(server.Handler)
	srv.Config.WriteTimeout = server.WriteTimeout
	srv.Start()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/connectivity/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	assert.Contains(t, nextData(t, r), `"offline":false`)

	time.Sleep(3 * server.WriteTimeout)
	monitor.Set(true)
	assert.Contains(t, nextData(t, r), `"offline":true`)
}
