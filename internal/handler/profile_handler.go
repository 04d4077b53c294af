package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"socialchat/internal/app/chat"
	"socialchat/internal/app/user"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/req"
	"socialchat/internal/pkg/resp"
)

// avatarFormField is the multipart field carrying the image.
const avatarFormField = "avatar"

// HandleGetProfile returns a user together with their friends.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := deps.Users.GetUser(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": deps.presentUser(u)})
	}
}

type userListItem struct {
	user.User
	Online bool `json:"online"`
}

// HandleListUsers returns every user with their live presence.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Users.ListUsers(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		items := make([]userListItem, 0, len(users))
		for _, u := range users {
			items = append(items, userListItem{User: deps.presentUser(u), Online: deps.Hub.IsOnline(u.ID)})
		}

		resp.RespondSuccess(w, r, items)
	}
}

type UpdateProfileInput struct {
	Fullname string `json:"fullname" validate:"max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// HandleUpdateProfile edits the caller's own profile.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		updated, err := deps.Users.UpdateProfile(r.Context(), chi.URLParam(r, "id"), user.ProfileUpdate{
			Fullname: strings.TrimSpace(input.Fullname),
			Email:    normalizeEmail(input.Email),
			Phone:    strings.TrimSpace(input.Phone),
		})
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": deps.presentUser(updated)})
	}
}

// HandleUploadAvatar stores a new profile picture. The content type is sniffed
// from the bytes; the client's declared type is not trusted.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile(avatarFormField)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mtype, err := mimetype.DetectReader(file)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
			return
		}

		contentType := mtype.String()
		if _, ok := chat.AllowedMIMETypes[contentType]; !ok {
			logx.Warn("upload_avatar: rejected content type", "user_id", userID, "mime", contentType)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeInvalid))
			return
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		key := chat.AvatarKey(userID, contentType)
		if err := deps.Storage.Upload(r.Context(), key, contentType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		updated, previousKey, err := deps.Users.UpdateAvatar(r.Context(), userID, key)
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		if previousKey != "" && previousKey != key {
			go func(k string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := deps.Storage.Delete(ctx, k); err != nil {
					logx.Warn("upload_avatar: failed to delete previous avatar", "key", k, "error", err)
				}
			}(previousKey)
		}

		resp.RespondSuccess(w, r, map[string]any{"user": deps.presentUser(updated)})
	}
}
