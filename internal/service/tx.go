package service

import "context"

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Matches() MatchRepositoryInterface
	History() MatchHistoryRepositoryInterface
}

// TxRunner executes a function within a transaction.
// The transaction is rolled back if fn returns an error.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
