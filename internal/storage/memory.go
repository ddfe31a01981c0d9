package storage

import (
	"context"
	"sync"
)

// MemTx acumula closures de desfazer registradas pelos stores em memória.
// Se a unidade falhar, os undos rodam em ordem reversa.
type MemTx struct {
	undo []func()
}

// OnRollback registra a operação inversa da mutação recém aplicada.
func (t *MemTx) OnRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *MemTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

// MemRunner serializa unidades atômicas em memória. Útil nos testes de
// serviço: dá a mesma semântica tudo-ou-nada do PgRunner sem banco.
type MemRunner struct{ mu sync.Mutex }

func NewMemRunner() *MemRunner { return &MemRunner{} }

func (r *MemRunner) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &MemTx{}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// MemTxOf devolve o *MemTx do handle, ou nil quando a operação roda fora de
// uma unidade atômica.
func MemTxOf(tx Tx) *MemTx {
	if t, ok := tx.(*MemTx); ok {
		return t
	}
	return nil
}
