package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the subledger store (SQLite).
var Migrations = migrate.NewGroup("subledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_subledger_tokens",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_tokens (
    token      TEXT PRIMARY KEY,
    allowed    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_prices",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_prices (
    token       TEXT NOT NULL,
    beneficiary TEXT NOT NULL,
    amount      TEXT NOT NULL DEFAULT '0',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (token, beneficiary)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_prices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_fees",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_fees (
    token      TEXT PRIMARY KEY,
    amount     TEXT NOT NULL DEFAULT '0',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_fees`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_assets",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_assets (
    id          INTEGER PRIMARY KEY,
    owner       TEXT NOT NULL,
    beneficiary TEXT NOT NULL,
    expiration  TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_subledger_assets_owner ON subledger_assets (owner, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_assets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_receipts",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_receipts (
    id            TEXT PRIMARY KEY,
    kind          TEXT NOT NULL,
    asset_id      INTEGER NOT NULL,
    payer         TEXT NOT NULL,
    beneficiary   TEXT NOT NULL,
    token         TEXT NOT NULL,
    units         INTEGER NOT NULL,
    fee           TEXT NOT NULL DEFAULT '0',
    price         TEXT NOT NULL DEFAULT '0',
    total         TEXT NOT NULL DEFAULT '0',
    refund        TEXT NOT NULL DEFAULT '0',
    settlement_id TEXT NOT NULL DEFAULT '',
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_subledger_receipts_asset ON subledger_receipts (asset_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_receipts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_settings",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_settings`)
				return err
			},
		},
	)
}
