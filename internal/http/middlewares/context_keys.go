package middlewares

const (
	// gin context keys set by the authentication gate
	CtxUser      = "auth.user"
	CtxRequestID = "request_id"
)
