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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/govern/database/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

const metadataFileName = "metadata.sqlite"

func openMetadata(dataDir string, logger *slog.Logger) (*gorm.DB, error) {
	var dsn string
	if dataDir == "" {
		// Each in-memory database gets a unique name so that independent
		// instances in one process don't share state
		dsn = fmt.Sprintf(
			"file:%s?mode=memory&cache=shared",
			uuid.NewString(),
		)
	} else {
		if err := ensureDataDir(dataDir); err != nil {
			return nil, err
		}
		metadataDbPath := filepath.Join(dataDir, metadataFileName)
		// WAL journal mode, wait on lock contention
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
			metadataDbPath,
		)
	}
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, err
	}
	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection serializes every read-write transaction
	sqlDb.SetMaxOpenConns(1)
	// Configure tracing for GORM
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	// Create table schemas
	for _, model := range models.MigrateModels {
		logger.Debug(fmt.Sprintf("creating table: %T", model))
		if err := db.AutoMigrate(model); err != nil {
			return nil, fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return db, nil
}

// Make sure that we can read data dir, and create if it doesn't exist
func ensureDataDir(dataDir string) error {
	if _, err := os.Stat(dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read data dir: %w", err)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	return nil
}
