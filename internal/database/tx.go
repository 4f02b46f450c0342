package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Tx is the Querier handed to a Transaction callback. Reads bypass the
// cache; namespaces written through it are invalidated after commit.
type Tx struct {
	exec  *Executor
	conn  TxConn
	stale []string
}

func (t *Tx) Query(ctx context.Context, stmt Statement, consume func(Rows) error) error {
	if err := t.exec.runQuery(ctx, t.conn, stmt, consume); err != nil {
		return err
	}
	t.stale = append(t.stale, stmt.Invalidates...)
	return nil
}

func (t *Tx) Exec(ctx context.Context, stmt Statement) (int64, error) {
	n, err := t.exec.runExec(ctx, t.conn, stmt)
	if err != nil {
		return 0, err
	}
	t.stale = append(t.stale, writeNamespaces(stmt)...)
	return n, nil
}

// Transaction runs fn inside one read-committed transaction on a single
// pooled connection. It commits when fn returns nil and rolls back on an
// error or a panic; the panic is re-raised after the rollback.
func (e *Executor) Transaction(ctx context.Context, fn func(q Querier) error) error {
	conn, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	raw, err := conn.Begin(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: begin: %v", domain.ErrStoreUnavailable, err)
	}

	tx := &Tx{exec: e, conn: raw}
	defer func() {
		if p := recover(); p != nil {
			e.rollback(ctx, raw)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		e.rollback(ctx, raw)
		return err
	}

	if err := raw.Commit(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: commit: %v", domain.ErrTransactionAborted, err)
	}

	e.Invalidate(context.WithoutCancel(ctx), tx.stale...)
	return nil
}

func (e *Executor) rollback(ctx context.Context, tx TxConn) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		e.log.Warn("rollback failed", zap.Error(err))
	}
}

var _ Querier = (*Tx)(nil)
