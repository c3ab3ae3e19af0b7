package repository

import (
	"context"

	"github.com/kmorales/expenseflow/pkg/database"
)

// TxManager implements port.TransactionManager over the shared DB handle.
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a transaction manager.
func NewTxManager(db *database.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn inside a transaction attached to the context it
// receives. Repository calls made with that context join the transaction.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithTransaction(ctx, fn)
}
