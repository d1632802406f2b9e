package backendapi

import "errors"

// ErrRemoteCall indicates that a backend call failed: transport error,
// non-success status, or a response body that could not be decoded.
var ErrRemoteCall = errors.New("remote call failed")
