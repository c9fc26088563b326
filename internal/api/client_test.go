package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:3333")
	assert.Error(t, err)
}

func TestListPipelines_NumericAndStringIDs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/crm/getPipelines", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get(HeaderXRequestID))
		io.WriteString(w, `[
			{"id": 7, "name": "Vendas", "stages": [{"id": "s1", "name": "Lead", "color": "#F59E0B"}]},
			{"id": "abc", "name": "Parcerias", "stages": null}
		]`)
	}))

	pipelines, err := c.ListPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	assert.Equal(t, ID("7"), pipelines[0].ID)
	assert.Equal(t, "Lead", pipelines[0].Stages[0].Name)
	assert.Equal(t, ID("abc"), pipelines[1].ID)
	assert.Empty(t, pipelines[1].Stages)
}

func TestCreatePipeline_SendsNameAndStages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/crm/createPipeline", r.URL.Path)
		assert.Equal(t, ContentTypeJSON, r.Header.Get(HeaderContentType))

		var body struct {
			Name   string       `json:"name"`
			Stages []StageInput `json:"stages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Novo", body.Name)
		require.Len(t, body.Stages, 2)

		json.NewEncoder(w).Encode(map[string]any{
			"id": "p1", "name": body.Name,
			"stages": []map[string]string{{"id": "a", "name": "A"}, {"id": "b", "name": "B"}},
		})
	}))

	p, err := c.CreatePipeline(context.Background(), "Novo", []StageInput{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, ID("p1"), p.ID)
	assert.Len(t, p.Stages, 2)
}

func TestUpdatePipeline_SendsNameAndStages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/crm/updatePipeline/f1", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"Vendas"`, string(body["name"]))
		assert.JSONEq(t, `[{"id":"s1","name":"Lead"},{"name":"Pós-venda","color":"#3B82F6"}]`, string(body["stages"]))

		io.WriteString(w, `{"id":"f1","name":"Vendas","stages":[{"id":"s1","name":"Lead"},{"id":"s9","name":"Pós-venda","color":"#3B82F6"}]}`)
	}))

	p, err := c.UpdatePipeline(context.Background(), "f1", "Vendas", []StageInput{
		{ID: "s1", Name: "Lead"},
		{Name: "Pós-venda", Color: "#3B82F6"},
	})
	require.NoError(t, err)
	require.Len(t, p.Stages, 2)
	assert.Equal(t, "Pós-venda", p.Stages[1].Name)
}

func TestUpdateOpportunity_PartialBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/opportunities/d1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"stageId": "s2"}, body)
		w.WriteHeader(http.StatusNoContent)
	}))

	stage := "s2"
	_, err := c.UpdateOpportunity(context.Background(), "d1", OpportunityInput{StageID: &stage})
	require.NoError(t, err)
}

func TestErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": "título obrigatório"}`)
	}))

	_, err := c.CreateOpportunity(context.Background(), OpportunityInput{})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "título obrigatório", ServerMessage(err))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.DeleteOpportunity(context.Background(), "d1")
	require.Error(t, err)
	assert.Equal(t, "", ServerMessage(err))
	assert.Contains(t, err.Error(), "status 500")
}

func TestMe_Unauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Me(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestMe_WrappedAndBare(t *testing.T) {
	for name, body := range map[string]string{
		"wrapped": `{"user": {"id": 1, "name": "Ana", "email": "ana@x.io"}}`,
		"bare":    `{"id": 1, "name": "Ana", "email": "ana@x.io"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			u, err := c.Me(context.Background())
			require.NoError(t, err)
			assert.Equal(t, ID("1"), u.ID)
			assert.Equal(t, "Ana", u.Name)
		})
	}
}

func TestLoginCookieIsSentAndPersisted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "s3cret", Path: "/"})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("token")
		if err != nil || ck.Value != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"id": "u1", "name": "Ana"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), Credentials{Email: "a", Password: "b"}))

	sessionPath := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, c.SaveSession(sessionPath))

	// a fresh client picks the session up from disk
	c2, err := New(srv.URL+"/api", WithHTTPClient(&http.Client{Transport: srv.Client().Transport}))
	require.NoError(t, err)
	require.NoError(t, c2.LoadSession(sessionPath))

	u, err := c2.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID("u1"), u.ID)

	require.NoError(t, ClearSession(sessionPath))
	require.NoError(t, ClearSession(sessionPath))
}
