package portalsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, r)

	for _, bad := range []string{"", "Admin", "superuser"} {
		_, err := ParseRole(bad)
		require.Error(t, err, bad)
	}

	var u User
	require.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &u))
}

func TestAllow(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	researcher := &User{Role: RoleResearcher}

	loading := SessionState{Loading: true}
	anon := SessionState{}
	asAdmin := SessionState{Authenticated: true, User: admin}
	asResearcher := SessionState{Authenticated: true, User: researcher}

	tests := []struct {
		name  string
		guard Guard
		state SessionState
		want  Decision
	}{
		{"loading renders nothing", GuardAdmin, loading, Decision{Kind: Pending}},
		{"generic anon", GuardAuthenticated, anon, redirect(ResearcherLoginPath)},
		{"generic any role", GuardAuthenticated, asAdmin, Decision{Kind: Allowed}},
		{"admin anon", GuardAdmin, anon, redirect(AdminLoginPath)},
		{"admin wrong role", GuardAdmin, asResearcher, redirect(HomePath)},
		{"admin ok", GuardAdmin, asAdmin, Decision{Kind: Allowed}},
		{"researcher anon", GuardResearcher, anon, redirect(ResearcherLoginPath)},
		{"researcher wrong role", GuardResearcher, asAdmin, redirect(HomePath)},
		{"researcher ok", GuardResearcher, asResearcher, Decision{Kind: Allowed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Allow(tt.guard, tt.state))
		})
	}
}

func verifyServer(t *testing.T, user User) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/verify-token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: CodeUnauthorized})
			return
		}
		_ = json.NewEncoder(w).Encode(UserResponse{User: user})
	})
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(MessageResponse{Message: "bye"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_InitAndProtect(t *testing.T) {
	ctx := context.Background()
	srv := verifyServer(t, User{ID: "u1", Email: "boss@uni.edu", Role: RoleAdmin})

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save(ctx, "good"))
	c, err := NewClient(srv.URL, tokens)
	require.NoError(t, err)

	s := NewSession(c)
	rendered := 0
	render := func(SessionState) { rendered++ }

	require.Equal(t, Pending, Protect(GuardAdmin, s, render).Kind)
	require.Zero(t, rendered)

	var seen []SessionState
	unsubscribe := s.Subscribe(func(st SessionState) { seen = append(seen, st) })

	require.NoError(t, s.Init(ctx))
	require.True(t, s.State().Authenticated)
	require.Equal(t, RoleAdmin, s.State().Role())
	require.Len(t, seen, 1)

	require.Equal(t, Allowed, Protect(GuardAdmin, s, render).Kind)
	require.Equal(t, 1, rendered)
	require.Equal(t, redirect(HomePath), Protect(GuardResearcher, s, render))
	require.Equal(t, 1, rendered)

	require.NoError(t, s.Logout(ctx))
	require.False(t, s.State().Authenticated)
	_, ok, _ := tokens.Get(ctx)
	require.False(t, ok)
	require.Len(t, seen, 2)

	unsubscribe()
	require.NoError(t, s.Init(ctx))
	require.Len(t, seen, 2)
}

func TestSession_InitWithRejectedToken(t *testing.T) {
	ctx := context.Background()
	srv := verifyServer(t, User{ID: "u1", Role: RoleResearcher})

	tokens := &MemoryTokenStore{}
	require.NoError(t, tokens.Save(ctx, "bad"))
	c, err := NewClient(srv.URL, tokens)
	require.NoError(t, err)

	s := NewSession(c)
	require.NoError(t, s.Init(ctx))
	require.False(t, s.State().Loading)
	require.False(t, s.State().Authenticated)

	_, ok, _ := tokens.Get(ctx)
	require.False(t, ok, "failed refresh clears the stored token")
}

func TestSQLiteTokenStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.db")

	s, err := OpenSQLiteTokenStore(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save(ctx, "one"))
	require.NoError(t, s.Save(ctx, "two"))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteTokenStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tok, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "two", tok)

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
