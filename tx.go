package dbcon

import (
	"context"

	"github.com/syssam/dbcon/dialect"
)

// BeginTransaction switches the DB into transaction mode: every following
// statement runs inside a driver transaction until EndTransaction. The
// transaction is opened with ctx, which must outlive it.
func (d *DB) BeginTransaction(ctx context.Context) error {
	if d.inTx {
		return ErrTxStarted
	}
	if err := d.Connect(ctx); err != nil {
		return err
	}
	tx, err := d.drv.Tx(ctx)
	if err != nil {
		d.lastErr = err
		d.log.WarnContext(ctx, "begin transaction failed", "error", err)
		return &TxError{Op: "begin", Err: err}
	}
	d.tx, d.inTx = tx, true
	d.log.DebugContext(ctx, "transaction started")
	return nil
}

// InTransaction reports whether the DB is in transaction mode.
func (d *DB) InTransaction() bool { return d.inTx }

// Commit commits the statements run since the transaction mode started or
// since the last Commit or Rollback. The DB stays in transaction mode and
// the next statement opens a new driver transaction. Outside transaction
// mode Commit is a no-op.
func (d *DB) Commit() error {
	return d.finish("commit")
}

// Rollback discards the statements run since the transaction mode started
// or since the last Commit or Rollback. Like Commit it leaves the DB in
// transaction mode.
func (d *DB) Rollback() error {
	return d.finish("rollback")
}

// EndTransaction commits and leaves transaction mode. If the commit fails
// the DB is left in transaction mode and the next statement opens a new
// driver transaction.
func (d *DB) EndTransaction() error {
	if err := d.Commit(); err != nil {
		return err
	}
	if d.inTx {
		d.inTx = false
		d.log.Debug("transaction ended")
	}
	return nil
}

func (d *DB) finish(op string) error {
	if d.tx == nil {
		return nil
	}
	var err error
	if op == "commit" {
		err = d.tx.Commit()
	} else {
		err = d.tx.Rollback()
	}
	// A driver tx is unusable once Commit or Rollback returns.
	d.tx = nil
	if err != nil {
		d.lastErr = err
		d.log.Warn(op+" failed", "error", err)
		return &TxError{Op: op, Err: err}
	}
	d.log.Debug(op)
	return nil
}

// execer returns where the next statement runs. In transaction mode a
// driver transaction is opened lazily.
func (d *DB) execer(ctx context.Context) (dialect.ExecQuerier, error) {
	if !d.inTx {
		return d.drv, nil
	}
	if d.tx == nil {
		tx, err := d.drv.Tx(ctx)
		if err != nil {
			d.lastErr = err
			return nil, &TxError{Op: "begin", Err: err}
		}
		d.tx = tx
	}
	return d.tx, nil
}
