package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{ID: "u1", Username: "alice"}, testSecret, time.Hour)
	req.NoError(err)

	payload, err := ParseToken(token, testSecret)
	req.NoError(err)
	req.Equal("u1", payload.ID)
	req.Equal("alice", payload.Username)
	req.Equal(TokenIssuer, payload.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, time.Hour)
	req.NoError(err)
	_, err = ParseToken(token, "other-secret")
	req.Error(err)

	expired, err := GenerateToken(&Payload{ID: "u1"}, testSecret, -time.Minute)
	req.NoError(err)
	_, err = ParseToken(expired, testSecret)
	req.Error(err)

	_, err = ParseToken("garbage", testSecret)
	req.ErrorIs(err, ErrInvalidToken)

	_, err = GenerateToken(&Payload{}, testSecret, time.Hour)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestParseToken_RejectsForeignIssuerAndSubject(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.StandardClaims
		id     string
	}{
		{"other issuer", jwt.StandardClaims{Issuer: "someone-else", Subject: "u1"}, "u1"},
		{"no issuer", jwt.StandardClaims{Subject: "u1"}, "u1"},
		{"subject differs from id", jwt.StandardClaims{Issuer: TokenIssuer, Subject: "u2"}, "u1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.claims.ExpiresAt = time.Now().Add(time.Hour).Unix()
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Payload{StandardClaims: tc.claims, ID: tc.id}).
				SignedString([]byte(testSecret))
			require.NoError(t, err)

			_, err = ParseToken(signed, testSecret)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func newProtectedRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(IdentityExtractorMiddleware(testSecret))
	r.With(RequireIdentity).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(RequireSelf("id")).Put("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"anonymous private", http.MethodGet, "/private", "", http.StatusUnauthorized},
		{"bad token private", http.MethodGet, "/private", "Bearer nope", http.StatusUnauthorized},
		{"authenticated private", http.MethodGet, "/private", "Bearer " + token, http.StatusNoContent},
		{"self", http.MethodPut, "/users/u1", "Bearer " + token, http.StatusNoContent},
		{"someone else", http.MethodPut, "/users/u2", "Bearer " + token, http.StatusForbidden},
		{"self anonymous", http.MethodPut, "/users/u1", "", http.StatusUnauthorized},
	}

	router := newProtectedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				r.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			require.Equal(t, tt.want, w.Code)
		})
	}
}
