package handler

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"socialchat/internal/app/user"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/otp"
	"socialchat/internal/pkg/req"
	"socialchat/internal/pkg/resp"
)

type RequestOTPInput struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRequestOTP sends a one-time code to a registered address. Unknown
// addresses get the same response so accounts cannot be enumerated.
func HandleRequestOTP(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RequestOTPInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		input.Email = normalizeEmail(input.Email)

		exists, err := deps.Users.EmailExists(r.Context(), input.Email)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if exists {
			code, err := deps.OTP.Issue(input.Email)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
				return
			}

			if err := deps.Mailer.SendCode(r.Context(), input.Email, code); err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
				return
			}
		} else {
			logx.Info("OTP requested for unknown email", "email", input.Email)
		}

		resp.RespondSuccess(w, r, map[string]string{"message": "OTP sent"})
	}
}

type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

// HandleVerifyOTP checks a one-time code and unlocks a password reset.
func HandleVerifyOTP(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input VerifyOTPInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		input.Email = normalizeEmail(input.Email)

		if err := deps.OTP.Verify(input.Email, input.OTP); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrOTPInvalid))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

type ResetPasswordInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// HandleResetPassword sets a new password for an address verified through HandleVerifyOTP.
func HandleResetPassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ResetPasswordInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		input.Email = normalizeEmail(input.Email)

		if err := deps.OTP.ConsumeVerified(input.Email); err != nil {
			if errors.Is(err, otp.ErrNotVerified) {
				resp.RespondError(w, r, errs.NewError(errs.ErrOTPNotVerified))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if err := deps.Users.UpdatePasswordByEmail(r.Context(), input.Email, string(hashedPassword)); err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				logx.Error(err, "reset_password: update failed", "email", input.Email)
			}
			resp.RespondError(w, r, storeError(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
