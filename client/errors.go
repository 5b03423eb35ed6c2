package client

import (
	"errors"
	"net/http"
)

var (
	ErrNoChanges             = errors.New("No changes made")
	ErrUploadInProgress      = errors.New("Please wait for the file to upload")
	ErrImageUploadInProgress = errors.New("Please wait for the image to upload")
	ErrNoImage               = errors.New("Please select an image")
	ErrUploadFailed          = errors.New("Could not upload image (File must be less than 2MB)")
	ErrUploadStart           = errors.New("Image upload failed")
	ErrNotSignedIn           = errors.New("not signed in")
)

// APIError is a non-2xx response. Message is the server's message field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// Message returns the text to show for err: the server message for API errors,
// err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
