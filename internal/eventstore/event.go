package eventstore

import "time"

// Status é o estágio reportado pelo feed. LOCKED nunca é persistido: a
// transição de lock é função pura do relógio, calculada na leitura.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinal      Status = "FINAL"
	StatusCancelled  Status = "CANCELLED"
)

// rank ordena a progressão monotônica SCHEDULED → IN_PROGRESS → FINAL.
// CANCELLED fica fora da escala: alcançável de qualquer estado não-final.
func (s Status) rank() int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusInProgress:
		return 1
	case StatusFinal:
		return 2
	}
	return -1
}

// Terminal indica estado do qual não há mais transição.
func (s Status) Terminal() bool {
	return s == StatusFinal || s == StatusCancelled
}

// Event é um jogo apostável conhecido pelo sistema.
type Event struct {
	ID          string
	FeedEventID string
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time
	Status      Status
	HomeScore   int
	AwayScore   int
	Winner      string // nome do time vencedor; vazio em empate ou sem resultado
	IsTie       bool
	Week        int
	Season      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LockTime é o deadline de aposta: kickoff menos a janela de corte.
func (e *Event) LockTime(cutoff time.Duration) time.Time {
	return e.StartTime.Add(-cutoff)
}

// Bettable avalia ao vivo se o evento aceita apostas. O limite é exclusivo:
// exatamente no lock time a aposta já está fechada.
func (e *Event) Bettable(now time.Time, cutoff time.Duration) bool {
	return e.Status == StatusScheduled && now.Before(e.LockTime(cutoff))
}

// FeedUpdate é o registro opaco vindo do Game Data Feed, chaveado pelo id
// externo do evento. Campos de resultado só têm significado em FINAL.
type FeedUpdate struct {
	FeedEventID string
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time
	Status      Status
	HomeScore   int
	AwayScore   int
	Winner      string
	IsTie       bool
	Week        int
	Season      int
}

// Result descreve o efeito de um RecordFeedUpdate.
type Result struct {
	EventID string
	// Applied indica se o update mutou o estado (false = noop idempotente)
	Applied bool
	// BecameTerminal indica a transição para FINAL/CANCELLED — o gatilho de
	// liquidação dispara exatamente uma vez, nessa transição
	BecameTerminal bool
}

// transition decide o que fazer com um update sobre o estado corrente.
// Regras: replay idempotente de terminal é noop; regressão de estágio é
// rejeitada com ErrStaleUpdate; CANCELLED só entra sobre estado não-final.
func transition(current Status, next Status) (apply bool, becameTerminal bool, err error) {
	if next.rank() < 0 && next != StatusCancelled {
		return false, false, ErrStaleUpdate
	}

	switch {
	case current == StatusFinal:
		if next == StatusFinal {
			return false, false, nil // replay do resultado: noop
		}
		return false, false, ErrStaleUpdate

	case current == StatusCancelled:
		if next == StatusCancelled {
			return false, false, nil
		}
		return false, false, ErrStaleUpdate

	case next == StatusCancelled:
		return true, true, nil

	case next.rank() < current.rank():
		return false, false, ErrStaleUpdate

	default:
		return true, next == StatusFinal, nil
	}
}
