package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{out: &buf, minLevel: WARN}

	l.Info("SALE", "hidden")
	l.Warn("print", "paper out")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "paper out")
	assert.Contains(t, out, "[PRINT")
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Error("DATABASE", "boom")
		l.LogSale("record", 1, "ok")
	})
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{out: &buf, minLevel: DEBUG}

	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ledger/totals", nil))

	assert.Contains(t, buf.String(), "GET /api/ledger/totals - 418")
}
