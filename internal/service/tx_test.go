package service

import (
	"context"
	"sync/atomic"
)

type testTxRepos struct {
	matches MatchRepositoryInterface
	history MatchHistoryRepositoryInterface
}

func (t *testTxRepos) Matches() MatchRepositoryInterface {
	return t.matches
}

func (t *testTxRepos) History() MatchHistoryRepositoryInterface {
	return t.history
}

type testTxRunner struct {
	repos TxRepositories
	calls atomic.Int32
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.calls.Add(1)
	return fn(t.repos)
}
