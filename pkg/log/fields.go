package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Avatar cache
	FieldContentHash = "content_hash"
	FieldBlobKey     = "blob_key"
	FieldCacheResult = "cache"
	FieldBytes       = "bytes"

	// Upstream / messaging
	FieldUpstreamURL = "upstream_url"
	FieldTopic       = "topic"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
