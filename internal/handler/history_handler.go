package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/resp"
)

// HandleHistory returns the conversation between two users, oldest first.
func HandleHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		friendID := chi.URLParam(r, "friendId")

		msgs, err := deps.Hub.History(r.Context(), userID, friendID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if msgs == nil {
			msgs = []message.Message{}
		}
		resp.RespondSuccess(w, r, msgs)
	}
}
