// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package treasury holds the assets a DAO governs and executes the
// transactions of passed proposals against them.
package treasury

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/blinklabs-io/govern/common"
	"github.com/prometheus/client_golang/prometheus"
)

// CallHandler receives the transactions addressed to it
type CallHandler interface {
	HandleCall(ctx context.Context, tx common.Transaction) error
}

// Reverter is implemented by call handlers that can undo a handled call when
// a later transaction in the same batch fails
type Reverter interface {
	Revert(ctx context.Context, tx common.Transaction)
}

type CallHandlerFunc func(ctx context.Context, tx common.Transaction) error

func (f CallHandlerFunc) HandleCall(ctx context.Context, tx common.Transaction) error {
	return f(ctx, tx)
}

type VaultConfig struct {
	Logger            *slog.Logger
	PromRegistry      prometheus.Registerer
	Address           common.Address
	InitialBalance    uint64
	AllowDelegateCall bool
}

// Vault is the executor of a governor. Each batch is applied atomically
type Vault struct {
	config   VaultConfig
	logger   *slog.Logger
	metrics  *vaultMetrics
	mu       sync.Mutex
	balance  uint64
	credits  map[common.Address]uint64
	handlers map[common.Address]CallHandler
}

func NewVault(cfg VaultConfig) (*Vault, error) {
	if cfg.Address.IsZero() {
		return nil, errors.New("vault requires an address")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	v := &Vault{
		config:   cfg,
		logger:   cfg.Logger.With("component", "treasury", "vault", cfg.Address.String()),
		balance:  cfg.InitialBalance,
		credits:  make(map[common.Address]uint64),
		handlers: make(map[common.Address]CallHandler),
	}
	v.initMetrics()
	v.metrics.balance.Set(float64(v.balance))
	return v, nil
}

func (v *Vault) Address() common.Address {
	return v.config.Address
}

// Balance returns the balance held by the vault
func (v *Vault) Balance() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance
}

// BalanceOf returns the amount the vault has paid out to an account
func (v *Vault) BalanceOf(account common.Address) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.credits[account]
}

func (v *Vault) Deposit(amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount > math.MaxUint64-v.balance {
		return ErrBalanceOverflow
	}
	v.balance += amount
	v.metrics.balance.Set(float64(v.balance))
	return nil
}

func (v *Vault) RegisterHandler(target common.Address, handler CallHandler) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.handlers[target]; ok {
		return ErrHandlerExists
	}
	v.handlers[target] = handler
	return nil
}

func (v *Vault) RemoveHandler(target common.Address) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.handlers, target)
}

// Handlers returns the sorted call handler targets
func (v *Vault) Handlers() []common.Address {
	v.mu.Lock()
	defer v.mu.Unlock()
	ret := slices.Collect(maps.Keys(v.handlers))
	slices.SortFunc(ret, common.Address.Compare)
	return ret
}

// ExecuteTransactions applies txs in order. When one fails the balances are
// restored, handled calls are reverted and an *ExecutionError is returned
func (v *Vault) ExecuteTransactions(ctx context.Context, txs []common.Transaction) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	balance := v.balance
	credits := maps.Clone(v.credits)
	var handled []int
	for i, tx := range txs {
		if err := v.execute(ctx, tx); err != nil {
			v.balance = balance
			v.credits = credits
			for j := len(handled) - 1; j >= 0; j-- {
				prev := txs[handled[j]]
				if r, ok := v.handlers[prev.To].(Reverter); ok {
					r.Revert(ctx, prev)
				}
			}
			v.metrics.failures.Inc()
			v.logger.Warn(
				"transaction batch rolled back",
				"index", i,
				"to", tx.To.String(),
				"error", err,
			)
			return &ExecutionError{Err: err, To: tx.To, Index: i}
		}
		if _, ok := v.handlers[tx.To]; ok {
			handled = append(handled, i)
		}
	}
	for _, tx := range txs {
		v.metrics.transactions.WithLabelValues(tx.Operation.String()).Inc()
	}
	v.metrics.balance.Set(float64(v.balance))
	v.logger.Info("transactions executed", "count", len(txs), "balance", v.balance)
	return nil
}

func (v *Vault) execute(ctx context.Context, tx common.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch tx.Operation {
	case common.OperationCall:
	case common.OperationDelegateCall:
		if !v.config.AllowDelegateCall {
			return ErrDelegateCallDisabled
		}
	default:
		return ErrUnknownOperation
	}
	if tx.Value > 0 {
		if tx.Value > v.balance {
			return ErrInsufficientBalance
		}
		if tx.Value > math.MaxUint64-v.credits[tx.To] {
			return ErrBalanceOverflow
		}
		v.balance -= tx.Value
		v.credits[tx.To] += tx.Value
	}
	handler, ok := v.handlers[tx.To]
	if !ok {
		if len(tx.Data) > 0 {
			return ErrNoCallHandler
		}
		return nil
	}
	return handler.HandleCall(ctx, tx)
}
