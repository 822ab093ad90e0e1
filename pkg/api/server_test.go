package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextforge/skillet/pkg/engine"
	"github.com/contextforge/skillet/pkg/skills"
)

func testServer(t *testing.T, reload ReloadFunc, records ...*skills.Skill) *Server {
	t.Helper()
	store := skills.NewStore()
	if len(records) > 0 {
		require.NoError(t, store.Load(records))
	}
	server, err := NewServer(engine.New(store), reload, &ServerConfig{Host: "localhost", Port: 8317})
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ServerConfig
		wantErr bool
	}{
		{name: "valid", config: ServerConfig{Host: "localhost", Port: 8317}},
		{name: "empty host", config: ServerConfig{Port: 8317}, wantErr: true},
		{name: "port too low", config: ServerConfig{Host: "localhost", Port: 0}, wantErr: true},
		{name: "port too high", config: ServerConfig{Host: "localhost", Port: 70000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListSkills(t *testing.T) {
	server := testServer(t, nil,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest body"},
		&skills.Skill{Name: "prettier-format", Description: "format code with prettier", Content: "prettier body"},
	)

	rec := doJSON(t, server, "GET", "/api/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Skills []skillSummary `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Skills, 2)
	// the store sorts by name
	assert.Equal(t, "prettier-format", response.Skills[0].Name)
	assert.Equal(t, "vitest-testing", response.Skills[1].Name)
	assert.Equal(t, len("vitest body"), response.Skills[1].Size)
}

func TestGetSkill(t *testing.T) {
	server := testServer(t, nil,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest body"},
	)

	t.Run("found", func(t *testing.T) {
		rec := doJSON(t, server, "GET", "/api/skills/vitest-testing", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			Skill   skillSummary `json:"skill"`
			Content string       `json:"content"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "vitest-testing", response.Skill.Name)
		assert.Equal(t, "vitest body", response.Content)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, server, "GET", "/api/skills/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSelect(t *testing.T) {
	server := testServer(t, nil,
		&skills.Skill{Name: "vitest-testing", Description: "run unit tests with vitest", Content: "vitest body"},
	)

	t.Run("happy path", func(t *testing.T) {
		rec := doJSON(t, server, "POST", "/api/select", engine.Request{
			Task:   "write a unit test",
			Budget: 1000,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result engine.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.NotEmpty(t, result.ID)
		require.Len(t, result.Selection.Entries, 1)
		assert.Equal(t, "vitest-testing", result.Selection.Entries[0].Name)
	})

	t.Run("invalid budget", func(t *testing.T) {
		rec := doJSON(t, server, "POST", "/api/select", engine.Request{Task: "anything", Budget: 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/select", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty store", func(t *testing.T) {
		empty := testServer(t, nil)
		rec := doJSON(t, empty, "POST", "/api/select", engine.Request{Task: "anything", Budget: 1000})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSelectSchema(t *testing.T) {
	server := testServer(t, nil,
		&skills.Skill{Name: "a", Description: "some description", Content: "body"},
	)

	rec := doJSON(t, server, "GET", "/api/schema/select", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "task")
	assert.Contains(t, props, "budget")
}

func TestReload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		called := false
		server := testServer(t, func(ctx context.Context) error {
			called = true
			return nil
		}, &skills.Skill{Name: "a", Description: "some description", Content: "body"})

		rec := doJSON(t, server, "POST", "/api/reload", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)

		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, true, response["success"])
	})

	t.Run("not configured", func(t *testing.T) {
		server := testServer(t, nil,
			&skills.Skill{Name: "a", Description: "some description", Content: "body"})

		rec := doJSON(t, server, "POST", "/api/reload", nil)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("failure", func(t *testing.T) {
		server := testServer(t, func(ctx context.Context) error {
			return errors.New("duplicate skill id")
		}, &skills.Skill{Name: "a", Description: "some description", Content: "body"})

		rec := doJSON(t, server, "POST", "/api/reload", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
