package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/voyagen/upnext/internal/models"
)

// SQLite implements Store on a single SQLite file. Write transactions are opened with
// BEGIN IMMEDIATE so a read-then-write inside one transaction holds the write lock.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens (or creates) the database file at path. Run RunMigrations first.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &SQLite{db: db}, nil
}

func sqliteDSN(path string) string {
	const opts = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	if strings.Contains(path, "?") {
		return path + "&" + opts
	}
	return path + "?" + opts
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success and rolling back on error or panic.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func (s *SQLite) CountEntries(ctx context.Context, ownerID, submitterID string, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM queue_entries
		 WHERE owner_id = ? AND submitter_id = ? AND created_at >= ?`,
		ownerID, submitterID, since.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("CountEntries: %w", err)
	}
	return n, nil
}

func (s *SQLite) FindDuplicate(ctx context.Context, ownerID, submitterID, videoID string, since time.Time) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.GetContext(ctx, &e,
		`SELECT `+entryColumns+` FROM queue_entries
		 WHERE owner_id = ? AND submitter_id = ? AND video_id = ? AND created_at >= ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		ownerID, submitterID, videoID, since.UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindDuplicate: %w", err)
	}
	return &e, nil
}

func (s *SQLite) CountActiveEntries(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM queue_entries WHERE owner_id = ? AND played = 0`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("CountActiveEntries: %w", err)
	}
	return n, nil
}

func (s *SQLite) CreateEntry(ctx context.Context, e *models.QueueEntry, maxActive int) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var active int
		if err := tx.GetContext(ctx, &active,
			`SELECT COUNT(*) FROM queue_entries WHERE owner_id = ? AND played = 0`, e.OwnerID); err != nil {
			return fmt.Errorf("count active: %w", err)
		}
		if maxActive > 0 && active >= maxActive {
			return ErrQueueFull
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO queue_entries (`+entryColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.OwnerID, e.SubmitterID, e.SourceURL, e.VideoID, e.Title,
			e.ThumbnailSmall, e.ThumbnailLarge, e.Played, e.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrQueueFull) {
		return fmt.Errorf("CreateEntry: %w", err)
	}
	return err
}

func (s *SQLite) GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.GetContext(ctx, &e, `SELECT `+entryColumns+` FROM queue_entries WHERE id = ?`, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	return &e, nil
}

func (s *SQLite) ListActiveEntries(ctx context.Context, ownerID, viewerID string) ([]models.QueueItem, error) {
	items := []models.QueueItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT e.id, e.owner_id, e.submitter_id, e.source_url, e.video_id, e.title,
		        e.thumbnail_small, e.thumbnail_large, e.played, e.created_at,
		        (SELECT COUNT(*) FROM votes v WHERE v.entry_id = e.id) AS vote_count,
		        EXISTS (SELECT 1 FROM votes v WHERE v.entry_id = e.id AND v.voter_id = ?) AS have_upvoted
		 FROM queue_entries e
		 WHERE e.owner_id = ? AND e.played = 0
		 ORDER BY e.created_at, e.id`,
		viewerID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveEntries: %w", err)
	}
	return items, nil
}

func (s *SQLite) GetCurrentStream(ctx context.Context, ownerID string) (*models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.GetContext(ctx, &e,
		`SELECT e.id, e.owner_id, e.submitter_id, e.source_url, e.video_id, e.title,
		        e.thumbnail_small, e.thumbnail_large, e.played, e.created_at
		 FROM current_streams c
		 JOIN queue_entries e ON e.id = c.entry_id
		 WHERE c.owner_id = ?`,
		ownerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCurrentStream: %w", err)
	}
	return &e, nil
}

func (s *SQLite) ApplyAdvance(ctx context.Context, ownerID, entryID string) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE queue_entries SET played = 1
			 WHERE id = ? AND owner_id = ? AND played = 0`,
			entryID, ownerID,
		)
		if err != nil {
			return fmt.Errorf("mark played: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n != 1 {
			return ErrConflict
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO current_streams (owner_id, entry_id, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (owner_id) DO UPDATE SET entry_id = excluded.entry_id, updated_at = excluded.updated_at`,
			ownerID, entryID, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("set current stream: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("ApplyAdvance: %w", err)
	}
	return err
}

func (s *SQLite) ToggleVote(ctx context.Context, entryID, voterID string, dir models.VoteDirection) (bool, error) {
	var (
		res sql.Result
		err error
	)
	switch dir {
	case models.Upvote:
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO votes (entry_id, voter_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (entry_id, voter_id) DO NOTHING`,
			entryID, voterID, time.Now().UTC())
	case models.Downvote:
		res, err = s.db.ExecContext(ctx, `DELETE FROM votes WHERE entry_id = ? AND voter_id = ?`, entryID, voterID)
	default:
		return false, fmt.Errorf("ToggleVote: unknown direction %d", dir)
	}
	if err != nil {
		return false, fmt.Errorf("ToggleVote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ToggleVote: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) CountVotes(ctx context.Context, entryID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM votes WHERE entry_id = ?`, entryID); err != nil {
		return 0, fmt.Errorf("CountVotes: %w", err)
	}
	return n, nil
}

func (s *SQLite) HasVoted(ctx context.Context, entryID, voterID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM votes WHERE entry_id = ? AND voter_id = ?`, entryID, voterID)
	if err != nil {
		return false, fmt.Errorf("HasVoted: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE id = ? AND owner_id = ?`, entryID, ownerID)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteActiveEntries(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE owner_id = ? AND played = 0`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("DeleteActiveEntries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteActiveEntries: %w", err)
	}
	return n, nil
}

func (s *SQLite) UpdateEntryMetadata(ctx context.Context, entryID string, md models.EntryMetadata) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_entries SET title = ?, thumbnail_small = ?, thumbnail_large = ? WHERE id = ?`,
		md.Title, md.ThumbnailSmall, md.ThumbnailLarge, entryID,
	)
	if err != nil {
		return fmt.Errorf("UpdateEntryMetadata: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateEntryMetadata: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
