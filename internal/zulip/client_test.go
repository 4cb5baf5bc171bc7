package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	return New(srv.URL+"/", "bot@zulip.example", "secret", WithHTTPClient(srv.Client()))
}

func TestListUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@zulip.example", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/api/v1/users", r.URL.Path)
		fmt.Fprint(w, `{"result":"success","msg":"","members":[
			{"user_id":1,"email":"prof@school.edu","full_name":"Prof","is_active":true},
			{"user_id":2,"email":"bot@zulip.example","full_name":"Bot","is_bot":true},
			{"user_id":3,"email":"","full_name":"Hidden"},
			{"user_id":4,"email":"ada@school.edu","full_name":"Ada","is_active":true}]}`)
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "Prof", users[0].FullName)
	assert.Equal(t, []string{"prof@school.edu", "ada@school.edu"}, Emails(users))
}

func TestSendPrivate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/messages", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "private", r.PostForm.Get("type"))
		assert.Equal(t, "**hello**", r.PostForm.Get("content"))

		var to []string
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("to")), &to))
		assert.Equal(t, []string{"ta@school.edu", "ada@school.edu"}, to)

		fmt.Fprint(w, `{"result":"success","msg":"","id":77}`)
	})

	id, err := c.SendPrivate(context.Background(), []string{"ta@school.edu", "ada@school.edu"}, "**hello**")
	require.NoError(t, err)
	assert.Equal(t, 77, id)
}

func TestSendPrivateNoRecipients(t *testing.T) {
	c := New("https://zulip.example", "bot@zulip.example", "secret")
	_, err := c.SendPrivate(context.Background(), nil, "hi")
	assert.ErrorContains(t, err, "no recipients")
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"result":"error","code":"BAD_REQUEST","msg":"Invalid email 'x'"}`)
	})

	_, err := c.SendPrivate(context.Background(), []string{"x"}, "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	assert.Equal(t, "Zulip API error 400 (BAD_REQUEST): Invalid email 'x'", apiErr.Error())
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.ListUsers(context.Background())
	assert.ErrorContains(t, err, "Zulip API error 502: bad gateway")
}

func TestMissingCredentials(t *testing.T) {
	c := New("https://zulip.example", "", "")
	_, err := c.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}
