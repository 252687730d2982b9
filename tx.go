package relmap

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// Tx is a transactional client.
type Tx struct {
	client *Client
	done   atomic.Bool
}

// Client returns a Client that binds to the transaction. Every operation run
// with it is part of the transaction.
func (tx *Tx) Client() *Client {
	return tx.client
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	d, err := tx.finish()
	if err != nil {
		return err
	}
	if err := d.tx.Commit(); err != nil {
		return fmt.Errorf("relmap: commit: %w", err)
	}
	tx.client.log.Debug("transaction committed")
	return nil
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	d, err := tx.finish()
	if err != nil {
		return err
	}
	if err := d.tx.Rollback(); err != nil {
		return fmt.Errorf("relmap: rollback: %w", err)
	}
	tx.client.log.Debug("transaction rolled back")
	return nil
}

var errTxDone = errors.New("relmap: transaction has already been committed or rolled back")

func (tx *Tx) finish() (*txDriver, error) {
	if !tx.done.CompareAndSwap(false, true) {
		return nil, errTxDone
	}
	d, ok := tx.client.driver.(*txDriver)
	if !ok {
		return nil, errors.New("relmap: not in a transaction")
	}
	return d, nil
}

// WithTx runs fn in a transaction. The transaction is committed if fn
// returns nil and rolled back if fn returns an error or panics. A panic is
// re-raised after the rollback. If fn ends the transaction itself, WithTx
// leaves it as is and returns the result of fn.
//
//	err := relmap.WithTx(ctx, client, func(tx *relmap.Tx) error {
//	    if err := relmap.Insert(ctx, tx.Client(), &u, sql.ModifyParams{}); err != nil {
//	        return err
//	    }
//	    return relmap.Update(ctx, tx.Client(), &acc, sql.ModifyParams{})
//	})
func WithTx(ctx context.Context, c *Client, fn func(tx *Tx) error) error {
	tx, err := c.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, errTxDone) {
			return &RollbackError{Err: fmt.Errorf("%w: %v", err, rerr)}
		}
		return err
	}
	if tx.done.Load() {
		return nil
	}
	return tx.Commit()
}
