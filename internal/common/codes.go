package common

// Code is a stable, client-facing error identifier such as
// "auth/user-not-found". Clients switch on it, so values never change.
type Code string

const (
	CodeUserNotFound            Code = "auth/user-not-found"
	CodeWrongPassword           Code = "auth/wrong-password"
	CodeWeakPassword            Code = "auth/weak-password"
	CodeBlacklistPassword       Code = "auth/blacklist-password"
	CodeInvalidUserToken        Code = "auth/invalid-user-token"
	CodeUserTokenExpired        Code = "auth/user-token-expired"
	CodeEmailAlreadyInUse       Code = "auth/email-already-in-use"
	CodeUniqueAlreadyInUse      Code = "auth/unique-already-in-use"
	CodeInvalidEmail            Code = "auth/invalid-email"
	CodeUserNotAuthorized       Code = "auth/user-not_authorized"
	CodeUnexpectedAuthorization Code = "auth/unexpected-authorization"

	CodeUnsupportedMediaType Code = "media/unsupported-media-type"
	CodeLimitUnexpectedFile  Code = "media/limit-unexpected-file"

	CodeUnknownError Code = "unknown_error"

	CodeMissingParams   Code = "request/missing-params"
	CodeUndesiredFields Code = "request/undesired-fields"
	CodeInvalidPhone    Code = "request/invalid-phone"
	CodeInvalidName     Code = "request/invalid-name"

	CodeMissingData Code = "mongo/missing-data"
	CodeReadError   Code = "mongo/read-error"
	CodeSaveError   Code = "mongo/save-error"

	CodeUserDocNotFound Code = "user/not-found"
)

// ProviderNotLocalPrefix is the message prefix returned on signin when the
// account was created through an OAuth provider.
const ProviderNotLocalPrefix = "auth/provider-not-local:"
