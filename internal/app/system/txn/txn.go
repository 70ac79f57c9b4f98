// Package txn runs multi-document MongoDB transactions.
//
// Transactions need a replica set or sharded cluster. Unlike a best-effort
// helper, Run never degrades to sequential writes: callers rely on
// all-or-none, so a server without transaction support is an error.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotSupported is wrapped into the error Run returns when the server
// cannot run transactions.
var ErrNotSupported = errors.New("txn: transactions not supported by this deployment")

// Run executes fn inside a transaction on db's client. fn must use the ctx it
// is given so its operations join the session.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return classify(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil {
		if IsNotSupported(err) {
			log.Error("transaction rejected by server", zap.Error(err))
		}
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	if IsNotSupported(err) {
		return fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	return err
}

var notSupportedWords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone server, old version).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}
