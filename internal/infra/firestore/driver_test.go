package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nmo-web-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestDriver(t *testing.T, handler http.HandlerFunc) *Driver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDriver(Config{
		ProjectID: "nmo-test",
		APIKey:    "test-key",
		Endpoint:  srv.URL,
	}, option.WithHTTPClient(srv.Client()))
}

func TestConnectRequiresConfiguration(t *testing.T) {
	_, err := NewDriver(Config{APIKey: "k"}).Connect(context.Background())
	assert.ErrorContains(t, err, "project id")

	_, err = NewDriver(Config{ProjectID: "p"}).Connect(context.Background())
	assert.ErrorContains(t, err, "api key")
}

func TestInsertCreatesDocument(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "projects/nmo-test/databases/(default)/documents/requests/AbC123"}`))
	})

	h, err := d.Connect(context.Background())
	require.NoError(t, err)
	coll, err := h.Locate("requests")
	require.NoError(t, err)

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := coll.Insert(context.Background(), map[string]any{
		"userName":  "Ahmed Ali",
		"status":    "pending",
		"timestamp": ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "AbC123", id)

	assert.True(t, strings.HasSuffix(gotPath, "/v1/projects/nmo-test/databases/(default)/documents/requests"), gotPath)
	fields, ok := gotBody["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"stringValue": "Ahmed Ali"}, fields["userName"])
	assert.Equal(t, map[string]any{"stringValue": "pending"}, fields["status"])
	assert.Equal(t, map[string]any{"timestampValue": "2025-01-02T03:04:05Z"}, fields["timestamp"])
}

func TestInsertClassifiesErrors(t *testing.T) {
	respond := func(code int, status string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "rejected", "status": %q}}`, code, status)
		}
	}

	t.Run("Forbidden is permission denied", func(t *testing.T) {
		d := newTestDriver(t, respond(http.StatusForbidden, "PERMISSION_DENIED"))
		h, err := d.Connect(context.Background())
		require.NoError(t, err)
		coll, _ := h.Locate("requests")

		_, err = coll.Insert(context.Background(), map[string]any{"userName": "x"})
		require.Error(t, err)
		assert.True(t, domain.IsPermissionDenied(err))
	})

	t.Run("Bad request is another store error", func(t *testing.T) {
		d := newTestDriver(t, respond(http.StatusBadRequest, "INVALID_ARGUMENT"))
		h, err := d.Connect(context.Background())
		require.NoError(t, err)
		coll, _ := h.Locate("requests")

		_, err = coll.Insert(context.Background(), map[string]any{"userName": "x"})
		var se *domain.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, domain.StoreErrorOther, se.Kind)
	})
}

func TestLocateRejectsEmptyCollection(t *testing.T) {
	d := newTestDriver(t, func(http.ResponseWriter, *http.Request) {})
	h, err := d.Connect(context.Background())
	require.NoError(t, err)
	_, err = h.Locate("")
	assert.Error(t, err)
}

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		in   any
		want map[string]any
	}{
		{nil, map[string]any{"nullValue": "NULL_VALUE"}},
		{"x", map[string]any{"stringValue": "x"}},
		{true, map[string]any{"booleanValue": true}},
		{42, map[string]any{"integerValue": "42"}},
		{int64(7), map[string]any{"integerValue": "7"}},
		{1.5, map[string]any{"doubleValue": 1.5}},
	}
	for _, tc := range cases {
		got, err := encodeValue(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := encodeValue(struct{}{})
	assert.Error(t, err)

	_, err = toDocument(map[string]any{"bad": []int{1}})
	assert.ErrorContains(t, err, `"bad"`)
}
