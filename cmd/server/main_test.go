package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebHandler(t *testing.T) {
	h, err := webHandler()
	require.NoError(t, err)

	for _, path := range []string{"/", "/dojo"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "<title>Arena</title>", path)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewLogger(t *testing.T) {
	cases := []struct {
		format, level string
		debug         bool
	}{
		{format: "text", level: "info", debug: false},
		{format: "json", level: "debug", debug: true},
		{format: "text", level: "garbage", debug: false},
	}

	for _, tc := range cases {
		log := newLogger(tc.format, tc.level)
		require.NotNil(t, log)
		assert.Equal(t, tc.debug, log.Enabled(context.Background(), slog.LevelDebug))
	}
}
