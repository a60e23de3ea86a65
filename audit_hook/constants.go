package audithook

// Action constants for audit events.
const (
	// Registry actions
	ActionTokenAllowed    = "token.allowed"
	ActionTokenDisallowed = "token.disallowed"

	// Pricing actions
	ActionPriceChanged          = "price.changed"
	ActionDirectionPriceChanged = "price.direction_changed"
	ActionFeeChanged            = "fee.changed"

	// Asset actions
	ActionAssetMinted    = "asset.minted"
	ActionAssetExtended  = "asset.extended"
	ActionAssetActivated = "asset.activated"
	ActionPurchaseFailed = "purchase.failed"

	// Administration actions
	ActionBaseURIChanged            = "base_uri.changed"
	ActionAdministrationTransferred = "administration.transferred"
)

// Resource constants for audit events.
const (
	ResourceToken  = "token"
	ResourcePrice  = "price"
	ResourceFee    = "fee"
	ResourceAsset  = "asset"
	ResourceLedger = "ledger"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryPricing  = "pricing"
	CategoryPayment  = "payment"
	CategoryAdmin    = "administration"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
