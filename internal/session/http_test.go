// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/export"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/pkg/pagination"
)

type snapshotEnvelope struct {
	Data sessionResponse `json:"data"`
}

type errorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details"`
}

// apiFixture is a registry served through the session routes.
type apiFixture struct {
	t        *testing.T
	registry *Registry
	server   *httptest.Server
}

func newAPIFixture(t *testing.T, source *stubSource) *apiFixture {
	t.Helper()

	registry := newTestRegistry(source, time.Minute)
	router := chi.NewRouter()
	router.Mount("/api/v1/sessions", NewHandler(registry).Routes())

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		registry.Close()
	})

	return &apiFixture{t: t, registry: registry, server: server}
}

func (f *apiFixture) do(method, path, body string) *http.Response {
	f.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	request, err := http.NewRequest(method, f.server.URL+"/api/v1/sessions"+path, reader)
	require.NoError(f.t, err)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := f.server.Client().Do(request)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { response.Body.Close() })

	return response
}

func (f *apiFixture) decode(response *http.Response, target any) {
	f.t.Helper()
	require.NoError(f.t, json.NewDecoder(response.Body).Decode(target))
}

// create makes a session and waits for its first fetch to settle.
func (f *apiFixture) create() string {
	f.t.Helper()

	response := f.do(http.MethodPost, "/", "")
	require.Equal(f.t, http.StatusCreated, response.StatusCode)

	var created snapshotEnvelope
	f.decode(response, &created)
	f.wait(created.Data.ID)

	return created.Data.ID
}

func (f *apiFixture) wait(id string) {
	f.t.Helper()
	session, err := f.registry.Get(id)
	require.NoError(f.t, err)
	session.Wait()
}

func mickeySource() *stubSource {
	return &stubSource{page: character.Page{
		Characters: []character.Character{
			{ID: 4703, Name: "Mickey Mouse", Films: []string{"Fantasia", "Steamboat Willie"}},
			{ID: 1947, Name: "Donald Duck", Films: []string{"The Three Caballeros"}},
		},
		Info: character.PageInfo{TotalPages: 3, Count: 2},
	}}
}

/*
TestHandler_SessionFlow drives one session through the main transitions.
*/
func TestHandler_SessionFlow(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	id := fixture.create()

	// 1. Snapshot after the first fetch
	var got snapshotEnvelope
	fixture.decode(fixture.do(http.MethodGet, "/"+id, ""), &got)
	assert.Equal(t, id, got.Data.ID)
	assert.Equal(t, dashboard.PhaseSucceeded, got.Data.Snapshot.Status)
	require.Len(t, got.Data.Snapshot.Table.Rows, 2)
	assert.Equal(t, "Donald Duck", got.Data.Snapshot.Table.Rows[0].Name)
	assert.Equal(t, dashboard.Pagination{Page: 1, TotalPages: 3, CanNext: true}, got.Data.Snapshot.Pagination)

	// 2. Page navigation
	response := fixture.do(http.MethodPut, "/"+id+"/page", `{"page":2}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	fixture.decode(response, &got)
	assert.Equal(t, 2, got.Data.Snapshot.Query.Page)

	// 3. Sorting keeps the page
	fixture.wait(id)
	response = fixture.do(http.MethodPut, "/"+id+"/sort", `{"order":"desc"}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	fixture.decode(response, &got)
	assert.Equal(t, 2, got.Data.Snapshot.Query.Page)
	assert.Equal(t, "Mickey Mouse", got.Data.Snapshot.Table.Rows[0].Name)

	// 4. Page size resets the page
	response = fixture.do(http.MethodPut, "/"+id+"/page-size", `{"page_size":20}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	fixture.decode(response, &got)
	assert.Equal(t, 1, got.Data.Snapshot.Query.Page)
	assert.Equal(t, 20, got.Data.Snapshot.Query.PageSize)

	// 5. Raw search input is accepted before it settles
	fixture.wait(id)
	response = fixture.do(http.MethodPut, "/"+id+"/search", `{"text":"mickey"}`)
	require.Equal(t, http.StatusAccepted, response.StatusCode)
	fixture.decode(response, &got)
	assert.Equal(t, "mickey", got.Data.Snapshot.SearchInput)

	// 6. Delete
	require.Eventually(t, func() bool {
		session, err := fixture.registry.Get(id)
		return err == nil && session.Query().SearchQuery == "mickey"
	}, time.Second, 5*time.Millisecond)
	fixture.wait(id)

	assert.Equal(t, http.StatusNoContent, fixture.do(http.MethodDelete, "/"+id, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, fixture.do(http.MethodGet, "/"+id, "").StatusCode)
}

/*
TestHandler_Validation checks the 400 responses of the transition endpoints.
*/
func TestHandler_Validation(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	id := fixture.create()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed_id", http.MethodGet, "/not-a-uuid", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown_session", http.MethodGet, "/0190f5a4-7c3e-7b1a-9d2e-5f6a7b8c9d0e", "", http.StatusNotFound, "NOT_FOUND"},
		{"page_zero", http.MethodPut, "/" + id + "/page", `{"page":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"page_beyond_last", http.MethodPut, "/" + id + "/page", `{"page":4}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"page_size_unsupported", http.MethodPut, "/" + id + "/page-size", `{"page_size":25}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"sort_unknown", http.MethodPut, "/" + id + "/sort", `{"order":"random"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown_field", http.MethodPut, "/" + id + "/sort", `{"direction":"asc"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"search_too_long", http.MethodPut, "/" + id + "/search", `{"text":"` + strings.Repeat("a", 101) + `"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"modal_bad_id", http.MethodPut, "/" + id + "/modal", `{"id":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := fixture.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, response.StatusCode)

			var body errorEnvelope
			fixture.decode(response, &body)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

/*
TestHandler_SortOrderRejected checks that an unknown order is reported as an
invalid value of the order field.
*/
func TestHandler_SortOrderRejected(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	id := fixture.create()

	response := fixture.do(http.MethodPut, "/"+id+"/sort", `{"order":"random"}`)
	require.Equal(t, http.StatusBadRequest, response.StatusCode)

	var body errorEnvelope
	fixture.decode(response, &body)
	require.Len(t, body.Details, 1)
	assert.Equal(t, apperr.FieldError{Field: "order", Message: "Must be one of: asc, desc"}, body.Details[0])
}

/*
TestHandler_Modal opens and closes the detail modal.
*/
func TestHandler_Modal(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	id := fixture.create()

	response := fixture.do(http.MethodPut, "/"+id+"/modal", `{"id":4703}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	fixture.wait(id)

	var got snapshotEnvelope
	fixture.decode(fixture.do(http.MethodGet, "/"+id, ""), &got)
	assert.True(t, got.Data.Snapshot.Selection.IsOpen)
	require.NotNil(t, got.Data.Snapshot.Selection.SelectedID)
	assert.Equal(t, 4703, *got.Data.Snapshot.Selection.SelectedID)
	assert.Equal(t, dashboard.ModalReady, got.Data.Snapshot.Modal.State)
	assert.Equal(t, "Donald Duck", got.Data.Snapshot.Modal.Name)

	response = fixture.do(http.MethodDelete, "/"+id+"/modal", "")
	require.Equal(t, http.StatusOK, response.StatusCode)
	fixture.decode(response, &got)
	assert.False(t, got.Data.Snapshot.Selection.IsOpen)
	assert.Nil(t, got.Data.Snapshot.Selection.SelectedID)
}

/*
TestHandler_Export downloads the visible page as a workbook.
*/
func TestHandler_Export(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	id := fixture.create()

	response := fixture.do(http.MethodGet, "/"+id+"/export", "")
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, export.ContentType, response.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="characters_films.xlsx"`, response.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), body[:2], "xlsx is a zip container")
}

func TestHandler_ExportBeforeSuccess(t *testing.T) {
	fixture := newAPIFixture(t, &stubSource{err: errors.New("socket closed")})
	id := fixture.create()

	response := fixture.do(http.MethodGet, "/"+id+"/export", "")
	assert.Equal(t, http.StatusConflict, response.StatusCode)

	// Refresh retries the failed fetch
	response = fixture.do(http.MethodPost, "/"+id+"/refresh", "")
	assert.Equal(t, http.StatusOK, response.StatusCode)
	fixture.wait(id)

	var got snapshotEnvelope
	fixture.decode(fixture.do(http.MethodGet, "/"+id, ""), &got)
	assert.Equal(t, dashboard.PhaseFailed, got.Data.Snapshot.Status)
	assert.Equal(t, "Error: Failed to fetch characters", got.Data.Snapshot.Table.Message)
}

/*
TestHandler_List pages through live sessions.
*/
func TestHandler_List(t *testing.T) {
	fixture := newAPIFixture(t, mickeySource())
	first := fixture.create()
	fixture.create()
	fixture.create()

	var got struct {
		Data []Info          `json:"data"`
		Meta pagination.Meta `json:"meta"`
	}
	fixture.decode(fixture.do(http.MethodGet, "/?page=1&limit=2", ""), &got)

	require.Len(t, got.Data, 2)
	assert.Equal(t, first, got.Data[0].ID)
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, got.Meta)
}
