package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the subledger store.
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
    allowed    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    amount      NUMERIC(78,0) NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
    amount     NUMERIC(78,0) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id          BIGINT PRIMARY KEY,
    owner       TEXT NOT NULL,
    beneficiary TEXT NOT NULL,
    expiration  TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    asset_id      BIGINT NOT NULL,
    payer         TEXT NOT NULL,
    beneficiary   TEXT NOT NULL,
    token         TEXT NOT NULL,
    units         BIGINT NOT NULL,
    fee           NUMERIC(78,0) NOT NULL DEFAULT 0,
    price         NUMERIC(78,0) NOT NULL DEFAULT 0,
    total         NUMERIC(78,0) NOT NULL DEFAULT 0,
    refund        NUMERIC(78,0) NOT NULL DEFAULT 0,
    settlement_id TEXT NOT NULL DEFAULT '',
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
