package handler

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"socialchat/internal/app/chat"
	"socialchat/internal/app/storage"
	"socialchat/internal/app/user"
	"socialchat/internal/configs"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/otp"
)

// AppDeps bundles everything the HTTP layer needs.
type AppDeps struct {
	Hub     *chat.Hub
	Config  *configs.AppConfig
	Users   user.Store
	Storage storage.StorageService
	OTP     *otp.Manager
	Mailer  otp.Mailer
	Metrics prometheus.Gatherer
}

// FullAssetURL turns a stored object key into a public URL.
func (d *AppDeps) FullAssetURL(key string) string {
	if key == "" || d.Config.PublicAssetBaseURL == "" {
		return key
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return d.Config.PublicAssetBaseURL + "/" + strings.TrimLeft(key, "/")
}

// presentUser rewrites avatar keys into public URLs.
func (d *AppDeps) presentUser(u user.User) user.User {
	u.Avatar = d.FullAssetURL(u.Avatar)
	for i := range u.Friends {
		u.Friends[i].Avatar = d.FullAssetURL(u.Friends[i].Avatar)
	}
	return u
}

// storeError maps user.Store errors onto client error codes.
func storeError(err error) *errs.CustomError {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return errs.NewError(errs.ErrUserNotFound)
	case errors.Is(err, user.ErrAlreadyExists):
		return errs.NewError(errs.ErrUserAlreadyExists)
	case errors.Is(err, user.ErrRequestExists):
		return errs.NewError(errs.ErrFriendRequestExists)
	case errors.Is(err, user.ErrAlreadyFriends):
		return errs.NewError(errs.ErrAlreadyFriends)
	case errors.Is(err, user.ErrRequestNotFound), errors.Is(err, user.ErrRequestAlreadyClosed):
		return errs.NewError(errs.ErrFriendRequestNotFound)
	}
	return errs.NewError(errs.ErrUnknown, err)
}
