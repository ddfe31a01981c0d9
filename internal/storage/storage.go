package storage

import "context"

// Tx é o handle opaco de transação repassado aos stores. A implementação
// Postgres entrega um *sql.Tx; a implementação em memória entrega um *MemTx
// com journal de desfazer.
type Tx any

// Runner executa fn dentro de uma unidade atômica. Se fn retornar erro,
// nenhum efeito parcial fica visível (rollback no Postgres, undo em memória).
type Runner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
