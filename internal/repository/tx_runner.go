package repository

import (
	"context"

	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return translatePgError(tx.Commit(ctx))
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Matches() service.MatchRepositoryInterface {
	return NewMatchRepositoryWithTx(r.tx)
}

func (r *txRepos) History() service.MatchHistoryRepositoryInterface {
	return NewMatchHistoryRepositoryWithTx(r.tx)
}
