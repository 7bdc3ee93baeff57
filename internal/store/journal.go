package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord 描述一次账户清仓运行。
type RunRecord struct {
	ID        string
	Exchange  string
	StartedAt time.Time
}

// OutcomeRecord 描述单个交易对的清仓结果。
type OutcomeRecord struct {
	RunID      string
	Symbol     string
	Remaining  float64
	Status     string
	Detail     string
	RecordedAt time.Time
}

// BeginRun 登记一次账户运行。
func (s *Store) BeginRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, exchange, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Exchange, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("登记运行记录失败: %w", err)
	}
	return nil
}

// FinishRun 写入运行结束时间。
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("更新运行记录失败: %w", err)
	}
	return nil
}

// RecordOutcome 写入单个交易对的结果。
func (s *Store) RecordOutcome(ctx context.Context, rec OutcomeRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, symbol, remaining, status, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Symbol, rec.Remaining, rec.Status, rec.Detail, rec.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("写入清仓结果失败: %w", err)
	}
	return nil
}

// ListOutcomes 返回一次运行的全部结果。
func (s *Store) ListOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, symbol, remaining, status, detail, recorded_at
		 FROM outcomes WHERE run_id = ? ORDER BY recorded_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("查询清仓结果失败: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &rec.Remaining, &rec.Status, &rec.Detail, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("扫描清仓结果失败: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历清仓结果失败: %w", err)
	}

	return records, nil
}
