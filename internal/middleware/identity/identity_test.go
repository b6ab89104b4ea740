package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kysclient/IMBA/internal/session"
)

func TestGuards(t *testing.T) {
	m, err := session.New("secret", false, 0, 0)
	require.NoError(t, err)

	member, err := m.Issue(session.Identity{UserID: 1})
	require.NoError(t, err)
	admin, err := m.Issue(session.Identity{UserID: 2, IsAdmin: true})
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		token      string
		guard      func(http.Handler) http.Handler
		wantStatus int
		wantError  string
	}{
		{name: "member route anonymous", guard: RequireMember, wantStatus: http.StatusUnauthorized, wantError: "로그인이 필요합니다."},
		{name: "member route bad token", token: "junk", guard: RequireMember, wantStatus: http.StatusUnauthorized, wantError: "로그인이 필요합니다."},
		{name: "member route member", token: member, guard: RequireMember, wantStatus: http.StatusOK},
		{name: "admin route anonymous", guard: RequireAdmin, wantStatus: http.StatusUnauthorized, wantError: "로그인이 필요합니다."},
		{name: "admin route member", token: member, guard: RequireAdmin, wantStatus: http.StatusForbidden, wantError: "관리자 권한이 필요합니다."},
		{name: "admin route admin", token: admin, guard: RequireAdmin, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Identify(m)(tt.guard(ok))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.token})
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestIdentify_StoresIdentity(t *testing.T) {
	m, err := session.New("secret", false, 0, 0)
	require.NoError(t, err)

	token, err := m.Issue(session.Identity{UserID: 9, Name: "김"})
	require.NoError(t, err)

	var got *session.Identity
	h := Identify(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.UserID)
}
