package http

const (
	KeyHeaderContentType = "Content-Type"
	KeyHeaderRequestID   = "X-Request-Id"

	ValueHeaderApplicationJson = "application/json"
	ValueHeaderTextHtml        = "text/html; charset=utf-8"
)
