package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voyagen/upnext/internal/models"
)

const entryColumns = `id, owner_id, submitter_id, source_url, video_id, title,
	thumbnail_small, thumbnail_large, played, created_at`

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Ping checks the connection to PostgreSQL.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) CountEntries(ctx context.Context, ownerID, submitterID string, since time.Time) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM queue_entries
		 WHERE owner_id = $1 AND submitter_id = $2 AND created_at >= $3`,
		ownerID, submitterID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountEntries: %w", err)
	}
	return n, nil
}

func (p *Postgres) FindDuplicate(ctx context.Context, ownerID, submitterID, videoID string, since time.Time) (*models.QueueEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM queue_entries
		 WHERE owner_id = $1 AND submitter_id = $2 AND video_id = $3 AND created_at >= $4
		 ORDER BY created_at DESC
		 LIMIT 1`,
		ownerID, submitterID, videoID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("FindDuplicate: %w", err)
	}
	e, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.QueueEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindDuplicate: %w", err)
	}
	return e, nil
}

func (p *Postgres) CountActiveEntries(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE owner_id = $1 AND played = false`,
		ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountActiveEntries: %w", err)
	}
	return n, nil
}

// CreateEntry serializes writers of the room with a transaction-scoped advisory lock
// so the capacity re-check and the insert cannot interleave with another admission.
func (p *Postgres) CreateEntry(ctx context.Context, e *models.QueueEntry, maxActive int) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, e.OwnerID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		var active int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM queue_entries WHERE owner_id = $1 AND played = false`,
			e.OwnerID,
		).Scan(&active); err != nil {
			return fmt.Errorf("count active: %w", err)
		}
		if maxActive > 0 && active >= maxActive {
			return ErrQueueFull
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO queue_entries (`+entryColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, e.OwnerID, e.SubmitterID, e.SourceURL, e.VideoID, e.Title,
			e.ThumbnailSmall, e.ThumbnailLarge, e.Played, e.CreatedAt,
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

func (p *Postgres) GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, entryID)
	if err != nil {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	e, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.QueueEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	return e, nil
}

func (p *Postgres) ListActiveEntries(ctx context.Context, ownerID, viewerID string) ([]models.QueueItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT e.id, e.owner_id, e.submitter_id, e.source_url, e.video_id, e.title,
		        e.thumbnail_small, e.thumbnail_large, e.played, e.created_at,
		        (SELECT COUNT(*) FROM votes v WHERE v.entry_id = e.id) AS vote_count,
		        EXISTS (SELECT 1 FROM votes v WHERE v.entry_id = e.id AND v.voter_id = $2) AS have_upvoted
		 FROM queue_entries e
		 WHERE e.owner_id = $1 AND e.played = false
		 ORDER BY e.created_at, e.id`,
		ownerID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveEntries: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.QueueItem])
	if err != nil {
		return nil, fmt.Errorf("ListActiveEntries: %w", err)
	}
	return items, nil
}

func (p *Postgres) GetCurrentStream(ctx context.Context, ownerID string) (*models.QueueEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT e.id, e.owner_id, e.submitter_id, e.source_url, e.video_id, e.title,
		        e.thumbnail_small, e.thumbnail_large, e.played, e.created_at
		 FROM current_streams c
		 JOIN queue_entries e ON e.id = c.entry_id
		 WHERE c.owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetCurrentStream: %w", err)
	}
	e, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.QueueEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCurrentStream: %w", err)
	}
	return e, nil
}

// ApplyAdvance is a conditional write guarded by played = false; the pointer upsert
// commits or rolls back together with it.
func (p *Postgres) ApplyAdvance(ctx context.Context, ownerID, entryID string) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE queue_entries SET played = true
			 WHERE id = $1 AND owner_id = $2 AND played = false`,
			entryID, ownerID,
		)
		if err != nil {
			return fmt.Errorf("mark played: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return ErrConflict
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO current_streams (owner_id, entry_id, updated_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (owner_id) DO UPDATE SET entry_id = EXCLUDED.entry_id, updated_at = EXCLUDED.updated_at`,
			ownerID, entryID,
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

func (p *Postgres) ToggleVote(ctx context.Context, entryID, voterID string, dir models.VoteDirection) (bool, error) {
	var query string
	switch dir {
	case models.Upvote:
		query = `INSERT INTO votes (entry_id, voter_id) VALUES ($1, $2)
		         ON CONFLICT (entry_id, voter_id) DO NOTHING`
	case models.Downvote:
		query = `DELETE FROM votes WHERE entry_id = $1 AND voter_id = $2`
	default:
		return false, fmt.Errorf("ToggleVote: unknown direction %d", dir)
	}
	tag, err := p.pool.Exec(ctx, query, entryID, voterID)
	if err != nil {
		return false, fmt.Errorf("ToggleVote: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) CountVotes(ctx context.Context, entryID string) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE entry_id = $1`, entryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountVotes: %w", err)
	}
	return n, nil
}

func (p *Postgres) HasVoted(ctx context.Context, entryID, voterID string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE entry_id = $1 AND voter_id = $2)`,
		entryID, voterID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("HasVoted: %w", err)
	}
	return ok, nil
}

// DeleteEntry removes the entry; votes cascade and the current stream pointer is nulled by the schema.
func (p *Postgres) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1 AND owner_id = $2`, entryID, ownerID)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteActiveEntries(ctx context.Context, ownerID string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM queue_entries WHERE owner_id = $1 AND played = false`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("DeleteActiveEntries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) UpdateEntryMetadata(ctx context.Context, entryID string, md models.EntryMetadata) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE queue_entries SET title = $2, thumbnail_small = $3, thumbnail_large = $4 WHERE id = $1`,
		entryID, md.Title, md.ThumbnailSmall, md.ThumbnailLarge,
	)
	if err != nil {
		return fmt.Errorf("UpdateEntryMetadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
