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

	FieldLMID        = "lm_id"
	FieldCategoryID  = "category_id"
	FieldBillID      = "bill_id"
	FieldAccountID   = "account_id"
	FieldAmountCents = "amount_cents"
	FieldCurrency    = "currency"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldWindowFrom  = "window_from"
	FieldWindowTo    = "window_to"
)

// Components defines standard component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentReconciler = "reconciler"
	ComponentBudget     = "budget"
	ComponentBills      = "bills"
	ComponentLiquidity  = "liquidity"
	ComponentProvider   = "provider"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)

// Operations defines standard operation names.
const (
	OpReconcile = "reconcile"
	OpEdit      = "edit"
	OpSync      = "sync"
	OpSnapshot  = "snapshot"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
