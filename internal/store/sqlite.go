package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"spxsim/internal/engine"
	apperrors "spxsim/internal/errors"
	"spxsim/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY,
		trading_date TEXT NOT NULL,
		index_open REAL NOT NULL,
		vix_open REAL NOT NULL,
		index_close REAL,
		vix_close REAL,
		intraday_range REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		session_id INTEGER NOT NULL,
		participant_id TEXT NOT NULL,
		structure TEXT NOT NULL,
		legs TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		limit_price REAL,
		window TEXT NOT NULL,
		dte_at_entry INTEGER NOT NULL,
		expiration TEXT,
		status TEXT NOT NULL,
		fill_price REAL,
		commission REAL,
		slippage REAL,
		rejection_reason TEXT,
		thesis TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id);

	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL,
		session_opened INTEGER NOT NULL,
		structure TEXT NOT NULL,
		side TEXT NOT NULL,
		legs TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		commission REAL NOT NULL,
		width REAL NOT NULL,
		window TEXT NOT NULL,
		dte_at_entry INTEGER NOT NULL,
		expiration TEXT,
		session_settled INTEGER,
		settlement_price REAL,
		settlement_value REAL,
		settlement_source TEXT,
		realized_pnl REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_positions_participant ON positions(participant_id);

	CREATE TABLE IF NOT EXISTS position_marks (
		position_id TEXT NOT NULL,
		session_id INTEGER NOT NULL,
		phase TEXT NOT NULL,
		mark_price REAL NOT NULL,
		unrealized_pnl REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (position_id, session_id, phase)
	);

	CREATE TABLE IF NOT EXISTS account_snapshots (
		participant_id TEXT NOT NULL,
		session_id INTEGER NOT NULL,
		balance REAL NOT NULL,
		buying_power_used REAL NOT NULL,
		buying_power_available REAL NOT NULL,
		open_positions INTEGER NOT NULL,
		realized_pnl REAL NOT NULL,
		total_commissions REAL NOT NULL,
		starting_capital REAL NOT NULL,
		return_pct REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (participant_id, session_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertSession records a session row, replacing an existing row on
// resume.
func (s *SQLiteStore) InsertSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, trading_date, index_open, vix_open)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trading_date = excluded.trading_date,
			index_open = excluded.index_open,
			vix_open = excluded.vix_open`,
		rec.ID, rec.TradingDate, rec.IndexOpen, rec.VIXOpen)
	if err != nil {
		return apperrors.NewStoreError("insert_session", fmt.Sprint(rec.ID), err)
	}
	return nil
}

// UpdateSessionClose stamps the session's closing values.
func (s *SQLiteStore) UpdateSessionClose(ctx context.Context, sessionID int64, indexClose, vixClose, intradayRange float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET index_close = ?, vix_close = ?, intraday_range = ?
		WHERE id = ?`,
		indexClose, vixClose, intradayRange, sessionID)
	if err != nil {
		return apperrors.NewStoreError("update_session_close", fmt.Sprint(sessionID), err)
	}
	return nil
}

// CountSessions returns the number of completed sessions, where
// completed means the close has been stamped.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE index_close IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, apperrors.NewStoreError("count_sessions", "", err)
	}
	return n, nil
}

// LastSession returns the most recent completed session, or nil when
// the store is empty.
func (s *SQLiteStore) LastSession(ctx context.Context) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trading_date, index_open, vix_open,
		       COALESCE(index_close, 0), COALESCE(vix_close, 0), COALESCE(intraday_range, 0)
		FROM sessions WHERE index_close IS NOT NULL
		ORDER BY id DESC LIMIT 1`)

	var rec SessionRecord
	err := row.Scan(&rec.ID, &rec.TradingDate, &rec.IndexOpen, &rec.VIXOpen,
		&rec.IndexClose, &rec.VIXClose, &rec.IntradayRange)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("last_session", "", err)
	}
	return &rec, nil
}

// InsertOrder records an order attempt (filled or rejected).
func (s *SQLiteStore) InsertOrder(ctx context.Context, o *models.Order, sessionID int64, slippage float64) error {
	legs, err := json.Marshal(o.Legs)
	if err != nil {
		return apperrors.NewStoreError("insert_order", o.ID, err)
	}
	var limit interface{}
	if o.LimitPrice != nil {
		limit = *o.LimitPrice
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders
		(id, session_id, participant_id, structure, legs, quantity, limit_price,
		 window, dte_at_entry, expiration, status, fill_price, commission,
		 slippage, rejection_reason, thesis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, sessionID, o.ParticipantID, string(o.Structure), string(legs),
		o.Quantity, limit, string(o.Window), o.DTEAtEntry, o.Expiration,
		string(o.Status), o.FillPrice, o.Commission, slippage,
		o.RejectionReason, o.Thesis)
	if err != nil {
		return apperrors.NewStoreError("insert_order", o.ID, err)
	}
	return nil
}

// InsertPosition records a newly opened position.
func (s *SQLiteStore) InsertPosition(ctx context.Context, p *models.Position) error {
	legs, err := json.Marshal(p.Legs)
	if err != nil {
		return apperrors.NewStoreError("insert_position", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions
		(id, participant_id, session_opened, structure, side, legs, quantity,
		 entry_price, commission, width, window, dte_at_entry, expiration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ParticipantID, p.SessionOpened, string(p.Structure),
		string(p.Side), string(legs), p.Quantity, p.EntryPrice, p.Commission,
		p.Width, string(p.Window), p.DTEAtEntry, p.Expiration)
	if err != nil {
		return apperrors.NewStoreError("insert_position", p.ID, err)
	}
	return nil
}

// UpdatePositionSettlement writes a position's settlement fields.
func (s *SQLiteStore) UpdatePositionSettlement(ctx context.Context, p *models.Position) error {
	if p.SessionSettled == nil {
		return apperrors.NewStoreError("update_position_settlement", p.ID, apperrors.ErrCorruptState)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE positions SET
			session_settled = ?, settlement_price = ?, settlement_value = ?,
			settlement_source = ?, realized_pnl = ?
		WHERE id = ?`,
		*p.SessionSettled, p.SettlementPrice, p.SettlementValue,
		p.SettlementSource, p.RealizedPnL, p.ID)
	if err != nil {
		return apperrors.NewStoreError("update_position_settlement", p.ID, err)
	}
	return nil
}

// InsertPositionMark records an observation-only mark for a position.
func (s *SQLiteStore) InsertPositionMark(ctx context.Context, positionID string, sessionID int64, phase string, mark, unrealizedPnL float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO position_marks
		(position_id, session_id, phase, mark_price, unrealized_pnl)
		VALUES (?, ?, ?, ?, ?)`,
		positionID, sessionID, phase, mark, unrealizedPnL)
	if err != nil {
		return apperrors.NewStoreError("insert_position_mark", positionID, err)
	}
	return nil
}

// OpenPositions loads a participant's unsettled positions, used to
// rebuild carried state on resume.
func (s *SQLiteStore) OpenPositions(ctx context.Context, participantID string) ([]*models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, session_opened, structure, side, legs,
		       quantity, entry_price, commission, width, window, dte_at_entry, expiration
		FROM positions
		WHERE participant_id = ? AND session_settled IS NULL
		ORDER BY session_opened`, participantID)
	if err != nil {
		return nil, apperrors.NewStoreError("open_positions", participantID, err)
	}
	defer rows.Close()

	var out []*models.Position
	for rows.Next() {
		var p models.Position
		var legsJSON, structure, side, window string
		if err := rows.Scan(&p.ID, &p.ParticipantID, &p.SessionOpened,
			&structure, &side, &legsJSON, &p.Quantity, &p.EntryPrice,
			&p.Commission, &p.Width, &window, &p.DTEAtEntry, &p.Expiration); err != nil {
			return nil, apperrors.NewStoreError("open_positions", participantID, err)
		}
		if err := json.Unmarshal([]byte(legsJSON), &p.Legs); err != nil {
			return nil, apperrors.NewStoreError("open_positions", p.ID, apperrors.ErrCorruptState)
		}
		p.Structure = models.StructureType(structure)
		p.Side = models.Side(side)
		p.Window = models.Window(window)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SaveAccountSnapshot upserts one participant's end-of-session state.
func (s *SQLiteStore) SaveAccountSnapshot(ctx context.Context, sessionID int64, snap engine.AccountSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO account_snapshots
		(participant_id, session_id, balance, buying_power_used,
		 buying_power_available, open_positions, realized_pnl,
		 total_commissions, starting_capital, return_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ParticipantID, sessionID, snap.Balance, snap.BuyingPowerUsed,
		snap.BuyingPowerAvailable, snap.OpenPositions, snap.RealizedPnL,
		snap.TotalCommissions, snap.StartingCapital, snap.ReturnPct)
	if err != nil {
		return apperrors.NewStoreError("save_account_snapshot", snap.ParticipantID, err)
	}
	return nil
}

// LatestAccountSnapshot returns the most recent snapshot for a
// participant, or nil when none exists.
func (s *SQLiteStore) LatestAccountSnapshot(ctx context.Context, participantID string) (*engine.AccountSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT participant_id, balance, buying_power_used, buying_power_available,
		       open_positions, realized_pnl, total_commissions, starting_capital, return_pct
		FROM account_snapshots
		WHERE participant_id = ?
		ORDER BY session_id DESC LIMIT 1`, participantID)

	var snap engine.AccountSnapshot
	err := row.Scan(&snap.ParticipantID, &snap.Balance, &snap.BuyingPowerUsed,
		&snap.BuyingPowerAvailable, &snap.OpenPositions, &snap.RealizedPnL,
		&snap.TotalCommissions, &snap.StartingCapital, &snap.ReturnPct)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("latest_account_snapshot", participantID, err)
	}
	snap.NetLiquidation = snap.Balance
	return &snap, nil
}

// Leaderboard ranks participants by their latest balance.
func (s *SQLiteStore) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.participant_id, a.balance, a.realized_pnl, a.return_pct,
		       (SELECT COUNT(*) FROM account_snapshots b WHERE b.participant_id = a.participant_id)
		FROM account_snapshots a
		WHERE a.session_id = (
			SELECT MAX(session_id) FROM account_snapshots c
			WHERE c.participant_id = a.participant_id
		)
		ORDER BY a.balance DESC`)
	if err != nil {
		return nil, apperrors.NewStoreError("leaderboard", "", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.ParticipantID, &r.Balance, &r.RealizedPnL, &r.ReturnPct, &r.Sessions); err != nil {
			return nil, apperrors.NewStoreError("leaderboard", "", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
