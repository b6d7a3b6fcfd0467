package supabase

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

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key")
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])

		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"token_type":"bearer",
			"user":{"id":"u1","email":"ana@example.com","user_metadata":{"name":"Ana Ruiz"}}}`))
	})

	s, err := c.SignInWithPassword(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "Ana Ruiz", s.User.Name())
}

func TestSignInErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"oauth style", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "Invalid login credentials", "invalid_grant"},
		{"msg style", 400, `{"code":400,"error_code":"email_not_confirmed","msg":"Email not confirmed"}`, "Email not confirmed", "email_not_confirmed"},
		{"plain text", 502, `bad gateway`, "bad gateway", ""},
		{"empty", 500, ``, "Internal Server Error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(srv.URL, "k")
	srv.Close()

	_, err := c.GetUser(context.Background(), "token")
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestSignUpWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		data := body["data"].(map[string]any)
		assert.Equal(t, "Ana Ruiz", data["name"])
		_, _ = w.Write([]byte(`{"id":"u1","email":"ana@example.com","user_metadata":{"name":"Ana Ruiz"}}`))
	})

	resp, err := c.SignUp(context.Background(), "ana@example.com", "pw", map[string]any{"name": "Ana Ruiz"})
	require.NoError(t, err)
	assert.Nil(t, resp.Session)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestSignUpWithSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","user":{"id":"u1","email":"ana@example.com"}}`))
	})

	resp, err := c.SignUp(context.Background(), "ana@example.com", "pw", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "at", resp.Session.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestSignOutUsesAccessToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.SignOut(context.Background(), "user-token"))
}

func TestResendAndRecover(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/auth/v1/recover" {
			assert.Equal(t, "https://app/reset", r.URL.Query().Get("redirect_to"))
		}
		if r.URL.Path == "/auth/v1/resend" {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "signup", body["type"])
		}
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.ResetPasswordForEmail(context.Background(), "a@b.c", "https://app/reset"))
	require.NoError(t, c.Resend(context.Background(), "signup", "a@b.c"))
	assert.Equal(t, []string{"/auth/v1/recover", "/auth/v1/resend"}, paths)
}

func TestSelectBuildsEqualityFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.active", q.Get("status"))
		assert.Equal(t, "eq.true", q.Get("featured"))
		assert.Equal(t, "is.null", q.Get("archived_at"))
		assert.Equal(t, "5", q.Get("limit"))
		_, _ = w.Write([]byte(`[{"id":"p1"}]`))
	})

	rows, err := c.Select(context.Background(), "projects", Filters{
		"status":      "active",
		"featured":    true,
		"archived_at": nil,
	}, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0]["id"])
}

func TestWritesAskForRepresentation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		switch r.Method {
		case http.MethodPost, http.MethodPatch:
			_, _ = w.Write([]byte(`[{"id":"p1","name":"New"}]`))
		case http.MethodDelete:
			assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`[]`))
		}
	})

	ctx := context.Background()
	rows, err := c.Insert(ctx, "projects", map[string]any{"name": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", rows[0]["name"])

	_, err = c.Update(ctx, "projects", map[string]any{"name": "New"}, Filters{"id": "p1"})
	require.NoError(t, err)

	rows, err = c.Delete(ctx, "projects", Filters{"id": "p1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRestRejectsBadIdentifiers(t *testing.T) {
	c := NewClient("http://unused", "k")
	_, err := c.Select(context.Background(), "projects; drop", nil, 0)
	assert.Error(t, err)
	_, err = c.Select(context.Background(), "projects", Filters{"a=b": 1}, 0)
	assert.Error(t, err)
	_, err = c.Insert(context.Background(), "projects", nil)
	assert.Error(t, err)
}

func TestPostgrestErrorCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation \"public._test\" does not exist","details":null,"hint":null}`))
	})
	_, err := c.Select(context.Background(), "_test", nil, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "42P01", apiErr.Code)
}
