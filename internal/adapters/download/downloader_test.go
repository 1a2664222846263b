package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
	"github.com/felixgeelhaar/setup-texlive/internal/testutil/mocks"
)

func testConfig() Config {
	cfg := DefaultConfig("setup-texlive-test")
	cfg.RetryDelay = 0
	return cfg
}

func TestDownloader_Download(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		statuses []int
		maxBytes int64
		attempts int32
		wantErr  error
	}{
		{name: "ok", statuses: []int{http.StatusOK}, attempts: 1},
		{name: "retried server error", statuses: []int{http.StatusServiceUnavailable, http.StatusOK}, attempts: 2},
		{name: "persistent server error", statuses: []int{http.StatusBadGateway, http.StatusBadGateway}, attempts: 2, wantErr: ErrServerError},
		{name: "not found is final", statuses: []int{http.StatusNotFound}, attempts: 1, wantErr: ErrFetchFailed},
		{name: "too large", statuses: []int{http.StatusOK}, maxBytes: 4, attempts: 1, wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				i := calls.Add(1) - 1
				w.WriteHeader(tt.statuses[i])
				_, _ = w.Write([]byte("install-tl archive"))
			}))
			defer srv.Close()

			cfg := testConfig()
			if tt.maxBytes > 0 {
				cfg.MaxBytes = tt.maxBytes
			}
			logger := mocks.NewLogger()
			dest := filepath.Join(t.TempDir(), "work", "install-tl-unx.tar.gz")

			err := New(cfg, logger).Download(context.Background(), srv.URL+"/install-tl-unx.tar.gz", dest)

			assert.Equal(t, tt.attempts, calls.Load())
			assert.NoFileExists(t, dest+".part")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NoFileExists(t, dest)
				return
			}
			require.NoError(t, err)
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, "install-tl archive", string(data))
			if tt.attempts > 1 {
				assert.Len(t, logger.Messages(ports.LevelWarn), 1)
			}
		})
	}
}

func TestDownloader_CancelledRetry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig()
	cfg.RetryDelay = 1 << 40
	logger := mocks.NewLogger()
	d := New(cfg, logger)

	done := make(chan error, 1)
	go func() {
		done <- d.Download(ctx, srv.URL, filepath.Join(t.TempDir(), "x"))
	}()
	cancel()
	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
