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

package database

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/blinklabs-io/govern/database/types"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const blobDirName = "blob"

func openBlob(dataDir string, logger *slog.Logger) (*badger.DB, error) {
	var badgerOpts badger.Options
	if dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true)
	} else {
		if err := ensureDataDir(dataDir); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(
			filepath.Join(dataDir, blobDirName),
		).WithCompression(options.Snappy)
	}
	badgerOpts = badgerOpts.
		WithLogger(NewBadgerLogger(logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	return badger.Open(badgerOpts)
}

func (d *Database) registerBlobMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "govern_database_blob_lsm_size_bytes",
			Help: "size of the blob store LSM tree",
		},
		func() float64 {
			lsm, _ := d.blob.Size()
			return float64(lsm)
		},
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "govern_database_blob_vlog_size_bytes",
			Help: "size of the blob store value log",
		},
		func() float64 {
			_, vlog := d.blob.Size()
			return float64(vlog)
		},
	)
}

func (d *Database) blobGet(txn *Txn, key []byte) ([]byte, error) {
	var ret []byte
	get := func(btxn *badger.Txn) error {
		item, err := btxn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return types.ErrBlobKeyNotFound
			}
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	}
	if txn == nil {
		if err := d.blob.View(get); err != nil {
			return nil, err
		}
		return ret, nil
	}
	if err := txn.validate(false); err != nil {
		return nil, err
	}
	if err := get(txn.blob); err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *Database) blobHas(txn *Txn, key []byte) (bool, error) {
	_, err := d.blobGet(txn, key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Database) blobSet(txn *Txn, key []byte, val []byte) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := txn.validate(true); err != nil {
		return err
	}
	if err := txn.blob.Set(key, val); err != nil {
		return fmt.Errorf("set blob key: %w", err)
	}
	return nil
}

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	logger *slog.Logger
}

func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: logger}
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	b.logger.Info(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.logger.Warn(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	b.logger.Debug(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	b.logger.Error(fmt.Sprintf(msg, args...))
}
