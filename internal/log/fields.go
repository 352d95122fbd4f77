package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldLimit       = "limit"
	FieldOffset      = "offset"
	FieldTotalCount  = "total_count"
	FieldStatus      = "status"
	FieldHostSlug    = "host_slug"
	FieldAccountRef  = "account_ref"
	FieldAmountCents = "amount_cents"
	FieldExpenseID   = "expense_id"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentQuery       = "query"
	ComponentEligibility = "eligibility"
	ComponentStorage     = "storage"
	ComponentLedger      = "ledger"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentRateLimit   = "rate_limit"
	ComponentTrace       = "trace"
	ComponentBackend     = "backend"
)
