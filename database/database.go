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

// Package database persists governance state. Relational records (proposals,
// tallies, freeze and veto state) live in sqlite through gorm, and vote marks
// live in badger. A read-write Txn spans both stores.
package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Config holds the database configuration
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// DataDir is the directory used for persistent storage. An empty value
	// selects in-memory storage
	DataDir string
}

type Database struct {
	logger   *slog.Logger
	metadata *gorm.DB
	blob     *badger.DB
	config   Config
}

// New creates a new database instance with optional persistence using the
// provided data directory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	d := &Database{
		config: *cfg,
		logger: cfg.Logger,
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("component", "database")
	metadataDb, err := openMetadata(d.config.DataDir, d.logger)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	d.metadata = metadataDb
	blobDb, err := openBlob(d.config.DataDir, d.logger)
	if err != nil {
		_ = d.closeMetadata()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	d.blob = blobDb
	if d.config.PromRegistry != nil {
		d.registerBlobMetrics(d.config.PromRegistry)
	}
	if err := d.checkCommitTimestamp(); err != nil {
		// Database is available for recovery, so return it with error
		return d, err
	}
	return d, nil
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying gorm handle. It must not be used by a
// goroutine that holds an open read-write Txn
func (d *Database) Metadata() *gorm.DB {
	return d.metadata
}

// Blob returns the underlying badger handle
func (d *Database) Blob() *badger.DB {
	return d.blob
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Update runs fn in a new read-write transaction, committing when fn
// returns nil and rolling back otherwise
func (d *Database) Update(fn func(*Txn) error) error {
	return d.Transaction(true).Do(fn)
}

// View runs fn in a new read-only transaction
func (d *Database) View(fn func(*Txn) error) error {
	txn := d.Transaction(false)
	defer txn.Release()
	return fn(txn)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	err = errors.Join(err, d.closeMetadata())
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) closeMetadata() error {
	if d.metadata == nil {
		return nil
	}
	sqlDb, err := d.metadata.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDb.Close()
}

// metadataDB returns the gorm handle to use for the given transaction
func (d *Database) metadataDB(txn *Txn) *gorm.DB {
	if txn == nil {
		return d.metadata
	}
	return txn.metadata
}
