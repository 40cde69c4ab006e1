package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/omni_briefing/app/finance/pkg/cart"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
)

// ErrNotFound 报告不存在
var ErrNotFound = errors.New("report not found")

// ReportSummary 归档报告列表项
type ReportSummary struct {
	ID           int    `json:"id"`
	Epoch        string `json:"epoch"`
	TickerCount  int    `json:"ticker_count"`
	SummaryCount int    `json:"summary_count"`
	CreatedAt    string `json:"created_at"`
}

// Report 归档报告详情
type Report struct {
	ID        int    `json:"id"`
	Epoch     string `json:"epoch"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Storage 导出报告的归档库，会话状态本身不落库
type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS finance_reports (
			id SERIAL PRIMARY KEY,
			epoch TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS finance_report_prices (
			id SERIAL PRIMARY KEY,
			report_id INTEGER REFERENCES finance_reports(id),
			symbol TEXT NOT NULL,
			name TEXT,
			price DOUBLE PRECISION,
			change_percent DOUBLE PRECISION,
			status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS finance_report_summaries (
			id SERIAL PRIMARY KEY,
			report_id INTEGER REFERENCES finance_reports(id),
			ref_id INTEGER,
			ticker TEXT,
			title TEXT,
			summary TEXT
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveReport 在一个事务内归档渲染后的报告及其行情、摘要明细，返回报告 id
func (s *Storage) SaveReport(ctx context.Context, snap cart.Snapshot, content string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var reportID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO finance_reports (epoch, content) VALUES ($1, $2) RETURNING id`,
		snap.Epoch, sanitize(content),
	).Scan(&reportID)
	if err != nil {
		return 0, rollback(tx, err)
	}

	for _, p := range snap.Prices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO finance_report_prices (report_id, symbol, name, price, change_percent, status) VALUES ($1, $2, $3, $4, $5, $6)`,
			reportID, p.Symbol, sanitize(p.Name), p.Price, p.ChangePercent, string(p.Status),
		); err != nil {
			return 0, rollback(tx, err)
		}
	}

	for _, r := range snap.Summaries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO finance_report_summaries (report_id, ref_id, ticker, title, summary) VALUES ($1, $2, $3, $4, $5)`,
			reportID, r.ID, r.Ticker, sanitize(r.Title), sanitize(r.Summary),
		); err != nil {
			return 0, rollback(tx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return reportID, nil
}

// ListReports 按创建时间倒序分页列出归档报告，返回当页数据与总数
func (s *Storage) ListReports(ctx context.Context, page, pageSize int) ([]*ReportSummary, int, error) {
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.epoch, r.created_at,
			(SELECT COUNT(*) FROM finance_report_prices p WHERE p.report_id = r.id),
			(SELECT COUNT(*) FROM finance_report_summaries m WHERE m.report_id = r.id)
		FROM finance_reports r
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*ReportSummary
	for rows.Next() {
		var (
			r         ReportSummary
			createdAt time.Time
		)
		if err := rows.Scan(&r.ID, &r.Epoch, &createdAt, &r.TickerCount, &r.SummaryCount); err != nil {
			return nil, 0, err
		}
		r.CreatedAt = createdAt.Format(time.DateTime)
		list = append(list, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM finance_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetReport 按 id 读取归档报告
func (s *Storage) GetReport(ctx context.Context, id int) (*Report, error) {
	var (
		r         Report
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, epoch, content, created_at FROM finance_reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.Epoch, &r.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt.Format(time.DateTime)
	return &r, nil
}

func rollback(tx *sql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// sanitize 移除无效的 UTF-8 字符和 NULL 字节，PostgreSQL 文本字段不接受二者
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}
