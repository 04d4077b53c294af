/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file defines the main Router, applying middleware such as request logging,
CORS and per-IP rate limiting before delegating to the REST and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"socialchat/internal/pkg/auth/jwt"
	"socialchat/internal/pkg/limiter"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/metrics"
	"socialchat/internal/pkg/resp"
)

const (
	AuthRate  = 0.2
	AuthBurst = 5
	OTPRate   = 0.05
	OTPBurst  = 3
	WSRate    = 1
	WSBurst   = 10
)

// Limiters holds the per-IP rate limiters the router uses. Stop them on shutdown.
type Limiters struct {
	Auth *limiter.KeyedRateLimiter
	OTP  *limiter.KeyedRateLimiter
	WS   *limiter.KeyedRateLimiter
}

// NewLimiters creates the default rate limiters.
func NewLimiters() *Limiters {
	return &Limiters{
		Auth: limiter.NewKeyedRateLimiter(rate.Limit(AuthRate), AuthBurst),
		OTP:  limiter.NewKeyedRateLimiter(rate.Limit(OTPRate), OTPBurst),
		WS:   limiter.NewKeyedRateLimiter(rate.Limit(WSRate), WSBurst),
	}
}

// Stop ends the limiters' sweep goroutines.
func (l *Limiters) Stop() {
	l.Auth.Stop()
	l.OTP.Stop()
	l.WS.Stop()
}

// Router sets up the main HTTP routing table for the application.
func Router(deps *AppDeps, limiters *Limiters) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":      "ok",
			"service":     "socialchat",
			"onlineUsers": len(deps.Hub.Online()),
		})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", metrics.Handler(deps.Metrics))
	}

	r.Group(func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.With(limiters.Auth.Middleware).Post("/register", HandleRegister(deps))
		api.With(limiters.Auth.Middleware).Post("/login", HandleLogin(deps))

		api.With(limiters.OTP.Middleware).Post("/request-otp", HandleRequestOTP(deps))
		api.With(limiters.Auth.Middleware).Post("/verify-otp", HandleVerifyOTP(deps))
		api.With(limiters.Auth.Middleware).Post("/reset-password", HandleResetPassword(deps))

		api.Group(func(authed chi.Router) {
			authed.Use(jwt.RequireIdentity)

			authed.Get("/users", HandleListUsers(deps))
			authed.Get("/me/{id}", HandleGetProfile(deps))
			authed.With(jwt.RequireSelf("id")).Put("/update-profile/{id}", HandleUpdateProfile(deps))
			authed.With(jwt.RequireSelf("id")).Post("/upload-avatar/{id}", HandleUploadAvatar(deps))

			authed.Post("/friend-request", HandleSendFriendRequest(deps))
			authed.With(jwt.RequireSelf("id")).Get("/friend-requests/{id}", HandleListFriendRequests(deps))
			authed.Post("/friend-request/accept", HandleAcceptFriendRequest(deps))

			authed.With(jwt.RequireSelf("userId")).Get("/messages/{userId}/{friendId}", HandleHistory(deps))

			authed.Post("/api/attachments/presign", HandlePresignAttachment(deps))
			authed.Get("/api/attachments/download", HandleDownloadAttachment(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps.Hub, wsUpgrader, limiters.WS))

	return r
}
