package wagers

import "time"

// Status de uma aposta. PENDING é o único estado não-terminal: uma vez
// WON/LOST/PUSH/CANCELLED, a aposta é imutável para sempre.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
	StatusPush      Status = "PUSH"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Terminal() bool { return s != StatusPending }

// Valid reporta se s é um status conhecido (usado no filtro da listagem).
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWon, StatusLost, StatusPush, StatusCancelled:
		return true
	}
	return false
}

// Wager é uma aposta de um usuário em um evento. Um usuário pode manter
// várias apostas no mesmo evento; nenhuma deduplicação acontece aqui.
type Wager struct {
	ID                   string
	UserID               string
	EventID              string
	Pick                 string // label do participante escolhido
	StakeCents           int64
	PotentialPayoutCents int64 // stake × multiplicador, fixado na criação
	RealizedPayoutCents  int64 // 0 até liquidar
	Status               Status
	PlacedAt             time.Time
	SettledAt            *time.Time
}
