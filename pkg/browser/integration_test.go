package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"LocalhostSuite/pkg/browser"
	"LocalhostSuite/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// These tests start a real browser. Set SUITE_BROWSER_TESTS=1 to run them;
// the playwright engine also needs `suite install` to have run.
func requireBrowser(t *testing.T) {
	t.Helper()
	if os.Getenv("SUITE_BROWSER_TESTS") != "1" {
		t.Skip("set SUITE_BROWSER_TESTS=1 to run real browser tests")
	}
}

func TestEnginesAgainstLocalPage(t *testing.T) {
	requireBrowser(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Local Test Page</title></head><body><h1>Hello</h1></body></html>`)
	}))
	defer srv.Close()

	for _, engine := range []string{config.EnginePlaywright, config.EngineChromedp} {
		t.Run(engine, func(t *testing.T) {
			l, err := browser.NewLauncher(engine, zap.NewNop(), nil)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			s, err := l.Launch(ctx, config.SessionConfig{Headless: true, Verbosity: 1})
			require.NoError(t, err)
			defer func() { assert.NoError(t, browser.CloseSession(s)) }()

			require.NoError(t, s.Navigate(ctx, srv.URL, browser.WaitDOMReady))

			title, err := s.Title(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Local Test Page", title)

			path := filepath.Join(t.TempDir(), "shots", engine+".png")
			require.NoError(t, s.Screenshot(ctx, path))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())

			html, err := s.Content(ctx)
			require.NoError(t, err)
			assert.Contains(t, html, "<h1>Hello</h1>")

			require.NoError(t, s.Close())
			assert.NoError(t, s.Close())
			_, err = s.Title(ctx)
			assert.ErrorIs(t, err, browser.ErrSessionClosed)
		})
	}
}

func TestDOMReadyDoesNotWaitForSubresources(t *testing.T) {
	requireBrowser(t)

	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Slow Image</title></head><body><img src="/stall.png"></body></html>`)
	})
	mux.HandleFunc("/stall.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(release)

	for _, engine := range []string{config.EnginePlaywright, config.EngineChromedp} {
		t.Run(engine, func(t *testing.T) {
			l, err := browser.NewLauncher(engine, zap.NewNop(), nil)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			s, err := l.Launch(ctx, config.SessionConfig{Headless: true, Verbosity: 1})
			require.NoError(t, err)
			defer func() { assert.NoError(t, browser.CloseSession(s)) }()

			navCtx, navCancel := context.WithTimeout(ctx, 10*time.Second)
			defer navCancel()
			require.NoError(t, s.Navigate(navCtx, srv.URL, browser.WaitDOMReady))

			title, err := s.Title(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Slow Image", title)
		})
	}
}
