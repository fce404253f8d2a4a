package log

const (
	KeyAppName         = "app"
	KeyRequestID       = "requestId"
	KeyTraceID         = "traceId"
	KeySpanID          = "spanId"
	KeyProcess         = "process"
	KeyTag             = "tag"
	KeyEmail           = "email"
	KeyUserID          = "userId"
	KeySessionID       = "sessionId"
	KeyRequest         = "request"
	KeyRequestBody     = "requestBody"
	KeyRequestHeader   = "requestHeader"
	KeyRequestHost     = "host"
	KeyRequestIP       = "requesterIP"
	KeyRequestMethod   = "requestMethod"
	KeyRequestURI      = "requestURI"
	KeyRequestURL      = "requestURL"
	KeyConfig          = "config"
	KeyProductID       = "productId"
	KeyProduct         = "product"
	KeyPagination      = "pagination"
	KeySearch          = "search"
	KeyPage            = "page"
	KeyGeneration      = "generation"
	KeyUpstreamURL     = "upstreamURL"
	KeyUpstreamStatus  = "upstreamStatus"
	KeyOperation       = "operation"
	KeyCacheKey        = "cacheKey"
	KeyDbURL           = "dbURL"
	KeyStatusCode      = "statusCode"
	KeyDurationMs      = "durationMs"
	KeyNotificationLen = "notifications"
)
