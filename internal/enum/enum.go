package enum

// ── Payment status (normalized to lowercase at ingestion) ──

const (
	PaymentStatusPaid      = "paid"
	PaymentStatusPending   = "pending"
	PaymentStatusCancelled = "cancelled"
)

// ── Operator roles ──

const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
)

// ── Notification kinds ──

const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyWarning = "warning"
	NotifyInfo    = "info"
)

// ── Menu-item publication phases ──

const (
	PhasePartial  = "partial"
	PhaseComplete = "complete"
)

// ── WebSocket event types ──

const (
	EventNotification  = "notification"
	EventMenuItems     = "menu_items.published"
	EventBillsReloaded = "bills.reloaded"
)
