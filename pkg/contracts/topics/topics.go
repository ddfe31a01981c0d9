package topics

const (
	// Sinal de liquidação: emitido quando um evento entra em FINAL ou CANCELLED
	EventSettlement = "event_settlement"

	// DLQ
	EventSettlementDLQ = "event_settlement_dlq"
)
