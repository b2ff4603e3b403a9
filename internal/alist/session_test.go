package alist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureToken_PreSuppliedTokenSkipsLogin(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"code":200,"message":"success","data":{"token":"fresh"}}`))
	}))
	defer srv.Close()

	s := NewSession(newTestClient(srv), "admin", "password", "pre-issued")

	token, err := s.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pre-issued", token)
	assert.Zero(t, logins.Load(), "pre-supplied token must be used without a validation call")
}

func TestEnsureToken_LogsInOnceAndCaches(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"code":200,"message":"success","data":{"token":"tok_1"}}`))
	}))
	defer srv.Close()

	s := NewSession(newTestClient(srv), "admin", "password", "")

	for i := 0; i < 3; i++ {
		token, err := s.EnsureToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok_1", token)
	}

	assert.Equal(t, int32(1), logins.Load(), "login must happen once per process")
}

func TestEnsureToken_LoginFailureNotRetried(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"code":400,"message":"name or password is incorrect","data":null}`))
	}))
	defer srv.Close()

	s := NewSession(newTestClient(srv), "admin", "wrong", "")

	_, err := s.EnsureToken(context.Background())
	require.Error(t, err)

	_, err2 := s.EnsureToken(context.Background())
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error(), "cached failure returned verbatim")
	assert.Equal(t, int32(1), logins.Load(), "failed login must not be attempted again")
}

func TestEnsureToken_OnLoginCallbackFires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"message":"success","data":{"token":"tok_cb"}}`))
	}))
	defer srv.Close()

	s := NewSession(newTestClient(srv), "admin", "password", "")

	var saved string
	s.OnLogin(func(token string) { saved = token })

	_, err := s.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_cb", saved)
}

func TestEnsureToken_OnLoginNotFiredForPreSuppliedToken(t *testing.T) {
	s := NewSession(NewClient("http://unused.invalid", nil), "a", "b", "pre")

	fired := false
	s.OnLogin(func(string) { fired = true })

	token, err := s.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pre", token)
	assert.False(t, fired)
}
