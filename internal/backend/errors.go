package backend

import "errors"

var (
	ErrTransport         = errors.New("backend unreachable")
	ErrUnexpectedStatus  = errors.New("unexpected backend status")
	ErrMalformedResponse = errors.New("malformed backend response")
)
