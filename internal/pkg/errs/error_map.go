package errs

import "net/http"

// errorMap holds the client-facing message and HTTP status for every error code.
// A zero Status means 400 Bad Request.
var errorMap = map[int]CustomError{
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed JSON body."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrMalformedEvent:        {Code: ErrMalformedEvent, Message: "Event is missing required fields."},
	ErrUnknownEvent:          {Code: ErrUnknownEvent, Message: "Unsupported event type."},
	ErrMessagePersistFailed:  {Code: ErrMessagePersistFailed, Message: "Message could not be sent. Please retry.", Status: http.StatusServiceUnavailable},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrSeenUpdateFailed:      {Code: ErrSeenUpdateFailed, Message: "Could not update read status.", Status: http.StatusServiceUnavailable},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "Only JPEG, PNG, WEBP and GIF images are allowed."},
	ErrFriendRequestExists:   {Code: ErrFriendRequestExists, Message: "Friend request already sent.", Status: http.StatusConflict},
	ErrFriendRequestNotFound: {Code: ErrFriendRequestNotFound, Message: "Friend request not found.", Status: http.StatusNotFound},
	ErrFriendRequestSelf:     {Code: ErrFriendRequestSelf, Message: "You cannot send a friend request to yourself."},
	ErrAlreadyFriends:        {Code: ErrAlreadyFriends, Message: "You are already friends.", Status: http.StatusConflict},

	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "User already exists.", Status: http.StatusConflict},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials.", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrOTPInvalid:         {Code: ErrOTPInvalid, Message: "The code is wrong or has expired."},
	ErrOTPNotVerified:     {Code: ErrOTPNotVerified, Message: "Please verify the code sent to your email first.", Status: http.StatusForbidden},
	ErrSessionKicked:      {Code: ErrSessionKicked, Message: "You were signed in on another device."},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:          {Code: ErrForbidden, Message: "You are not allowed to do that.", Status: http.StatusForbidden},

	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusBadGateway},
}
