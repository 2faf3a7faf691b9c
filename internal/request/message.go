package request

import "errors"

// UnknownErrorMessage is returned when an error carries no message.
const UnknownErrorMessage = "Unknown error"

// APIMessager is implemented by errors that carry a message from the API
// response body.
type APIMessager interface {
	APIMessage() string
}

// ErrorMessage picks a user-facing message: the API-provided message if
// any, then the error text, then UnknownErrorMessage.
func ErrorMessage(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	var api APIMessager
	if errors.As(err, &api) && api.APIMessage() != "" {
		return api.APIMessage()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
