package dbcon

import (
	"context"
	"errors"

	"github.com/syssam/dbcon/dialect"
)

// varSetter is implemented by drivers that can apply session variables.
type varSetter interface {
	SetVars(context.Context, map[string]string) error
}

// Connect opens the connection if the DB is not connected yet. It runs the
// dialect's connect statements, which force UTF-8 client encoding, and
// applies the configured session variables.
// On failure the DB stays disconnected and a *ConnectionError is returned.
func (d *DB) Connect(ctx context.Context) error {
	if d.drv != nil {
		return nil
	}
	drv, err := d.open(ctx, d.cfg)
	if err != nil {
		return d.connectFailed(ctx, err)
	}
	for _, stmt := range dialect.ConnectStatements(d.dialect) {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return d.connectFailed(ctx, errors.Join(err, drv.Close()))
		}
	}
	if len(d.cfg.Session) > 0 {
		vs, ok := drv.(varSetter)
		if !ok {
			return d.connectFailed(ctx, errors.Join(errors.New("driver does not support session variables"), drv.Close()))
		}
		if err := vs.SetVars(ctx, d.cfg.Session); err != nil {
			return d.connectFailed(ctx, errors.Join(err, drv.Close()))
		}
	}
	d.drv = d.instrument(drv)
	d.log.DebugContext(ctx, "connected", "addr", d.cfg.String())
	return nil
}

func (d *DB) connectFailed(ctx context.Context, err error) error {
	d.lastErr = err
	d.log.WarnContext(ctx, "connect failed", "addr", d.cfg.String(), "error", err)
	return &ConnectionError{Addr: d.cfg.String(), Err: err}
}

// Connected reports whether the DB holds an open connection.
func (d *DB) Connected() bool {
	return d.drv != nil
}

// Disconnect rolls back an unfinished transaction and closes the
// connection. It is a no-op on a disconnected DB. A failed rollback is
// reported as a *TxError joined with any close error; the connection is
// closed either way.
func (d *DB) Disconnect() error {
	if d.drv == nil {
		return nil
	}
	var rerr error
	if d.tx != nil {
		if err := d.tx.Rollback(); err != nil {
			rerr = &TxError{Op: "rollback", Err: err}
			d.log.Warn("rollback on disconnect failed", "error", err)
		}
	}
	err := d.drv.Close()
	d.drv, d.tx, d.inTx = nil, nil, false
	if err != nil {
		d.lastErr = err
		d.log.Warn("disconnect failed", "error", err)
		return errors.Join(rerr, err)
	}
	if rerr != nil {
		d.lastErr = rerr
		return rerr
	}
	d.log.Debug("disconnected")
	return nil
}

// Close disconnects. The DB can be connected again afterwards.
func (d *DB) Close() error {
	return d.Disconnect()
}
