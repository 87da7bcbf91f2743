package client

import "errors"

var (
	// ErrCredential covers a malformed private key or a signing failure.
	ErrCredential = errors.New("service account credential")
	// ErrAuthExchange covers an unreachable token endpoint or one that returns no usable token.
	ErrAuthExchange = errors.New("token exchange")
	ErrAppend       = errors.New("sheet append")
	ErrNotification = errors.New("event notification")
)
