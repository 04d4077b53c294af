/*
Package errs provides the application error type and the business error codes.

The same codes are used in HTTP JSON responses and in WebSocket "error" events,
so clients only need one table to interpret failures.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the caller is sending requests too fast.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat and social errors
const (
	// ErrMalformedEvent indicates a WebSocket event that failed boundary validation.
	ErrMalformedEvent = 2001

	// ErrUnknownEvent indicates a WebSocket event type the server does not handle.
	ErrUnknownEvent = 2002

	// ErrMessagePersistFailed indicates that a chat message could not be stored and was not delivered.
	ErrMessagePersistFailed = 2101

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length.
	ErrMessageContentTooLong = 2102

	// ErrSeenUpdateFailed indicates that the seen-state update could not be stored.
	ErrSeenUpdateFailed = 2103

	// ErrAttachmentKeyInvalid indicates an image reference outside the chat attachment namespace.
	ErrAttachmentKeyInvalid = 2201

	// ErrFileSizeTooLarge indicates that an uploaded file exceeded the size limit.
	ErrFileSizeTooLarge = 2202

	// ErrFileTypeInvalid indicates that an uploaded file is not an accepted image type.
	ErrFileTypeInvalid = 2203

	// ErrFriendRequestExists indicates a pending request between the same users already exists.
	ErrFriendRequestExists = 2301

	// ErrFriendRequestNotFound indicates the friend request does not exist or is no longer pending.
	ErrFriendRequestNotFound = 2302

	// ErrFriendRequestSelf indicates a user tried to befriend themselves.
	ErrFriendRequestSelf = 2303

	// ErrAlreadyFriends indicates a friend request between users who are already friends.
	ErrAlreadyFriends = 2304
)

// 3xxx: Account and session errors
const (
	// ErrUserAlreadyExists indicates that the username or email is already registered.
	ErrUserAlreadyExists = 3001

	// ErrInvalidCredentials indicates a username/password mismatch.
	ErrInvalidCredentials = 3002

	// ErrUserNotFound indicates that the account does not exist.
	ErrUserNotFound = 3003

	// ErrOTPInvalid indicates a wrong or expired one-time code.
	ErrOTPInvalid = 3004

	// ErrOTPNotVerified indicates a password reset without a verified one-time code.
	ErrOTPNotVerified = 3005

	// ErrSessionKicked indicates that the connection was replaced by a newer one for the same user.
	ErrSessionKicked = 3006

	// ErrUnauthorized indicates a missing or invalid identity token.
	ErrUnauthorized = 3007

	// ErrForbidden indicates that the identity may not act on the requested resource.
	ErrForbidden = 3008
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that the object storage rejected the operation.
	ErrFileStorageFailed = 5001
)
