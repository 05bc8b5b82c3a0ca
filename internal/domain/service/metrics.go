package service

// IdentityMetrics records identity reconciliation outcomes.
type IdentityMetrics interface {
	RecordExchange(provider, outcome string)
	RecordLinkCreated(provider string)
	RecordCurrentUser(source string)
}
