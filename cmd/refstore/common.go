package main

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/config"
	"github.com/orneryd/refstore/refstore/lock"
)

// parseOID hex-decodes s into an object id of the given width, the way
// a caller passing --old-oid/--new-oid expects it validated.
func parseOID(s string, width int) (refname.ObjectID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not valid hex: %w", s, err)
	}
	if len(raw) != width {
		return nil, fmt.Errorf("%q is %d bytes, want %d", s, len(raw), width)
	}
	return refname.ObjectID(raw), nil
}

// lockFailMode translates the resolved Lock config into the FailMode a
// Transaction needs.
func lockFailMode(cfg *config.Config) lock.FailMode {
	if cfg.Lock.FailMode == "retry" {
		return lock.RetryWithTimeout{Budget: cfg.Lock.RetryBudget, Interval: cfg.Lock.RetryInterval}
	}
	return lock.FailImmediately{}
}

// zapFields builds the structured fields the transaction-driving
// subcommands (update-ref, delete-ref) log before committing.
func zapFields(name, txnID string) []zap.Field {
	return []zap.Field{
		zap.String("ref", name),
		zap.String("txn_id", txnID),
	}
}
