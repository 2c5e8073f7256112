package core

import "context"

type clientKey struct{}

// ClientInfo identifies the caller of a conversion for the history log.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// WithClient attaches caller details to ctx.
func WithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, info)
}

// ClientFromContext returns the caller details stored by WithClient, or the
// zero value for calls that did not come over HTTP.
func ClientFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientKey{}).(ClientInfo)
	return info
}
