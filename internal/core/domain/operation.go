package domain

// OperationKind categorizes what a wrapped call is doing.
type OperationKind string

const (
	KindBlockchainTransaction OperationKind = "blockchain_transaction"
	KindDatabaseOperation     OperationKind = "database_operation"
	KindExternalAPI           OperationKind = "external_api"
	KindValidation            OperationKind = "validation"
	KindAuthentication        OperationKind = "authentication"
	KindRateLimit             OperationKind = "rate_limit"
	KindTimeout               OperationKind = "timeout"
	KindNetwork               OperationKind = "network"
)

// Severity ranks how bad a failure of the operation is for the business.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// OperationContext describes what is being attempted. Kind and Severity are
// fixed by the call-site category; the correlation fields and Metadata are
// diagnostic passthrough and never affect control flow.
type OperationContext struct {
	Kind      OperationKind     `json:"kind"`
	Severity  Severity          `json:"severity"`
	CompanyID string            `json:"company_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	EventID   string            `json:"event_id,omitempty"`
	TagID     string            `json:"tag_id,omitempty"`
	Endpoint  string            `json:"endpoint,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
