package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the minimal tables needed by this app.
// This keeps setup simple (no external migration tool), but still gives persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists trades (
			id bigserial primary key,
			ticker text not null,
			entry_time timestamptz not null default now(),
			entry_price double precision not null,
			amount double precision not null default 0,
			model_confidence double precision not null default 0,

			rsi double precision null,
			macd double precision null,
			macd_signal double precision null,
			bb_position double precision null,
			volume_ratio double precision null,
			price_change_5m double precision null,
			price_change_15m double precision null,
			ema_9 double precision null,
			ema_21 double precision null,
			atr double precision null,
			hour_of_day int null,
			day_of_week int null,
			rsi_change double precision null,
			volume_trend double precision null,
			rsi_prev_5m double precision null,
			bb_position_prev_5m double precision null,

			status text not null default 'open',
			exit_time timestamptz null,
			exit_price double precision null,
			profit_rate double precision null,
			is_profitable boolean null,
			profit_class int null,
			exit_reason text not null default ''
		);`,
		`create index if not exists trades_status_idx on trades(status);`,
		`create index if not exists trades_ticker_status_idx on trades(ticker, status);`,
		`create index if not exists trades_exit_time_idx on trades(exit_time);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
