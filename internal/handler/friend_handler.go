package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialchat/internal/app/chat"
	"socialchat/internal/pkg/auth/jwt"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/req"
	"socialchat/internal/pkg/resp"
)

type FriendRequestInput struct {
	From string `json:"from"`
	To   string `json:"to" validate:"required"`
}

// HandleSendFriendRequest creates a pending request from the caller and pushes
// it to the addressee if they are online.
func HandleSendFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input FriendRequestInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.From != "" && input.From != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		if input.To == identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestSelf))
			return
		}

		fr, err := deps.Users.CreateFriendRequest(r.Context(), identity.ID, input.To)
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		sender := identity.ID
		if u, err := deps.Users.GetUser(r.Context(), identity.ID); err == nil {
			summary := deps.presentUser(u).Summary()
			fr.Sender = &summary
			sender = u.Username
		}

		delivered := deps.Hub.NotifyUser(fr.ToID, chat.Outbound{Type: chat.EventFriendRequest, Payload: fr})
		logx.Info("Friend request sent", "from", sender, "to", fr.ToID, "live", delivered)

		resp.RespondSuccess(w, r, fr)
	}
}

// HandleListFriendRequests lists the pending requests addressed to the caller.
func HandleListFriendRequests(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := deps.Users.PendingFriendRequests(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		for i := range requests {
			if requests[i].Sender != nil {
				requests[i].Sender.Avatar = deps.FullAssetURL(requests[i].Sender.Avatar)
			}
		}

		resp.RespondSuccess(w, r, requests)
	}
}

type AcceptFriendRequestInput struct {
	RequestID string `json:"requestId" validate:"required"`
}

// HandleAcceptFriendRequest accepts a request addressed to the caller and tells
// the original sender if they are online.
func HandleAcceptFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input AcceptFriendRequestInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fr, err := deps.Users.AcceptFriendRequest(r.Context(), input.RequestID, identity.ID)
		if err != nil {
			resp.RespondError(w, r, storeError(err))
			return
		}

		deps.Hub.NotifyUser(fr.FromID, chat.Outbound{Type: chat.EventFriendAccepted, Payload: fr})

		resp.RespondSuccess(w, r, fr)
	}
}
