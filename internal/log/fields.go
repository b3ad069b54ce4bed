package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSource     = "source"
	FieldClusterKey = "cluster_key"
	FieldRowCount   = "row_count"
	FieldGeneration = "generation"
	FieldSnapshotID = "snapshot_id"
	FieldUser       = "user"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentSheets    = "sheets"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentAuth      = "auth"
)

// Operations defines standard operation names.
const (
	OpFetch    = "fetch"
	OpRefresh  = "refresh"
	OpIngest   = "ingest"
	OpSnapshot = "snapshot"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpLogin    = "login"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
