package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/atomupload/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ledgerPingTimeout = 5 * time.Second

// NewLedgerPool opens the pool backing the upload ledger. The caller owns
// the pool and must Close it.
func NewLedgerPool(ctx context.Context, cfg config.LedgerConfig) (*pgxpool.Pool, error) {
	poolCfg, err := ledgerPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ledgerPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}
	return pool, nil
}

func ledgerPoolConfig(cfg config.LedgerConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ledger database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	return poolCfg, nil
}
