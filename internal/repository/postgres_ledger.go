package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradebot-backend/internal/domain"
)

// PostgresLedger stores trades in Postgres.
// Open positions: status='open'. Closed history: status='closed'.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (r *PostgresLedger) RecordEntry(trade *domain.Trade) (int64, error) {
	if trade == nil {
		return 0, errors.New("nil trade")
	}

	f := trade.Features
	if f == nil {
		f = &domain.FeatureVector{}
	}

	var id int64
	err := r.pool.QueryRow(context.Background(), `
		insert into trades(
			ticker, entry_time, entry_price, amount, model_confidence,
			rsi, macd, macd_signal, bb_position, volume_ratio,
			price_change_5m, price_change_15m, ema_9, ema_21, atr,
			hour_of_day, day_of_week, rsi_change, volume_trend,
			rsi_prev_5m, bb_position_prev_5m,
			status
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		returning id
	`,
		trade.Ticker,
		trade.EntryTime,
		trade.EntryPrice,
		trade.Amount,
		trade.Confidence,
		f.RSI, f.MACD, f.MACDSignal, f.BBPosition, f.VolumeRatio,
		f.PriceChange5m, f.PriceChange15m, f.EMA9, f.EMA21, f.ATR,
		int(f.HourOfDay), int(f.DayOfWeek), f.RSIChange, f.VolumeTrend,
		f.RSIPrev5m, f.BBPositionPrev5m,
		domain.TradeStatusOpen,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresLedger) RecordExit(id int64, exitPrice, profitRate float64, reason string) error {
	isProfitable := profitRate > domain.WinThreshold
	profitClass := domain.ProfitClassOf(profitRate)

	_, err := r.pool.Exec(context.Background(), `
		update trades set
			status=$2,
			exit_time=$3,
			exit_price=$4,
			profit_rate=$5,
			is_profitable=$6,
			profit_class=$7,
			exit_reason=$8
		where id=$1
	`, id, domain.TradeStatusClosed, time.Now(), exitPrice, profitRate, isProfitable, profitClass, reason)
	return err
}

func (r *PostgresLedger) OpenTrades() ([]*domain.Trade, error) {
	rows, err := r.pool.Query(context.Background(), `
		select id, ticker, entry_time, entry_price, amount, model_confidence,
			status, exit_time, exit_price, profit_rate, is_profitable, profit_class, exit_reason
		from trades
		where status = 'open'
		order by entry_time desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, scanErr := scanTrade(rows)
		if scanErr != nil {
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (r *PostgresLedger) Statistics() (*domain.TradeStatistics, error) {
	row := r.pool.QueryRow(context.Background(), `
		select
			count(*),
			count(*) filter (where is_profitable),
			coalesce(avg(profit_rate) filter (where profit_rate > 0), 0),
			coalesce(avg(-profit_rate) filter (where profit_rate < 0), 0)
		from trades
		where status = 'closed'
	`)

	var stats domain.TradeStatistics
	if err := row.Scan(&stats.TotalTrades, &stats.Wins, &stats.AvgProfit, &stats.AvgLoss); err != nil {
		return nil, err
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades)
	}
	return &stats, nil
}

func (r *PostgresLedger) TickerStats(ticker string) (*domain.TickerStats, error) {
	row := r.pool.QueryRow(context.Background(), `
		select count(*), count(*) filter (where is_profitable)
		from trades
		where ticker = $1 and status = 'closed'
	`, ticker)

	var total, wins int
	if err := row.Scan(&total, &wins); err != nil {
		return nil, err
	}

	stats := &domain.TickerStats{Trades: total}
	if total > 0 {
		stats.WinRate = float64(wins) / float64(total)
	}
	return stats, nil
}

// Helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (*domain.Trade, error) {
	var t domain.Trade
	var exitTime pgtype.Timestamptz
	var exitPrice pgtype.Float8
	var profitRate pgtype.Float8
	var isProfitable pgtype.Bool
	var profitClass pgtype.Int4

	if err := s.Scan(
		&t.ID,
		&t.Ticker,
		&t.EntryTime,
		&t.EntryPrice,
		&t.Amount,
		&t.Confidence,
		&t.Status,
		&exitTime,
		&exitPrice,
		&profitRate,
		&isProfitable,
		&profitClass,
		&t.ExitReason,
	); err != nil {
		return nil, err
	}

	if exitTime.Valid {
		v := exitTime.Time
		t.ExitTime = &v
	}
	if exitPrice.Valid {
		v := exitPrice.Float64
		t.ExitPrice = &v
	}
	if profitRate.Valid {
		v := profitRate.Float64
		t.ProfitRate = &v
	}
	if isProfitable.Valid {
		v := isProfitable.Bool
		t.IsProfitable = &v
	}
	if profitClass.Valid {
		v := int(profitClass.Int32)
		t.ProfitClass = &v
	}

	return &t, nil
}

// compile-time check
var _ domain.TradeLedger = (*PostgresLedger)(nil)
