package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError string
	}{
		{name: "valid JSON", body: `{"name": "test"}`},
		{name: "invalid JSON", body: `{invalid}`, expectError: "invalid JSON"},
		{name: "empty body", body: ``, expectError: "request body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tt.body))
			var dest map[string]string

			err := ParseJSON(req, &dest)

			if tt.expectError != "" {
				assert.ErrorContains(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "test", dest["name"])
			}
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`nope`))
	var dest struct{}

	ok := ParseJSONOrError(w, req, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathStringOrError(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/x", nil), map[string]string{"id": "inv-1"})
		w := httptest.NewRecorder()

		val, ok := ParsePathStringOrError(w, req, "id")

		assert.True(t, ok)
		assert.Equal(t, "inv-1", val)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()

		_, ok := ParsePathStringOrError(w, httptest.NewRequest(http.MethodPost, "/x", nil), "id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing path parameter: id")
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr strips port", remoteAddr: "10.0.0.7:51234", want: "10.0.0.7"},
		{name: "remote addr without port", remoteAddr: "10.0.0.7", want: "10.0.0.7"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:8080", want: "::1"},
		{
			name:       "forwarded header ignored without trust",
			remoteAddr: "10.0.0.7:51234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:       "10.0.0.7",
		},
		{
			name:       "first forwarded hop with trust",
			remoteAddr: "10.0.0.7:51234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			trustProxy: true,
			want:       "203.0.113.9",
		},
		{
			name:       "real ip fallback with trust",
			remoteAddr: "10.0.0.7:51234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			trustProxy: true,
			want:       "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trustProxy))
		})
	}
}
