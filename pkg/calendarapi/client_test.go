package calendarapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventUsesCalendarPathAndBearer(t *testing.T) {
	var gotAuth, gotPath string
	var gotEvent Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"evt-1"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", srv.Client())
	id, err := client.CreateEvent(context.Background(), "tok", "cal-1", Event{Subject: "Launch", ShowAs: "busy", Categories: []string{"Green"}})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/me/calendars/cal-1/events", gotPath)
	assert.Equal(t, "busy", gotEvent.ShowAs)
}

func TestCreateEventDefaultCalendar(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"evt-2"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).CreateEvent(context.Background(), "tok", "", Event{})
	require.NoError(t, err)
	assert.Equal(t, "/me/events", gotPath)
}

func TestUpdateEventPatches(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"id":"evt-1"}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, srv.Client()).UpdateEvent(context.Background(), "tok", "evt-1", Event{ID: "ignored"}))
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/me/events/evt-1", path)
}

func TestDeleteEventNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"ErrorItemNotFound","message":"The specified object was not found in the store."}}`))
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client()).DeleteEvent(context.Background(), "tok", "evt-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ErrorItemNotFound", apiErr.Code)
}

func TestPingServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/calendar", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client()).Ping(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "503")
}
