package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// SnapshotStore implements port.SnapshotStore on PostgreSQL. Each Save
// replaces the stored snapshot wholesale inside one transaction, so a
// Load never observes a half-written reconciliation pass. The database
// is a last-known-good cache, never operational truth; the ledger is.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore returns a store over the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) Save(ctx context.Context, snap port.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM campaigns`); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM cooperatives`); err != nil {
		return err
	}

	for _, c := range snap.Cooperatives {
		_, err = tx.Exec(ctx, `INSERT INTO cooperatives
    (address, vault, name, tax_id, personal_id, email)
VALUES ($1,$2,$3,$4,$5,$6)`,
			c.Address, c.Vault, c.Name, c.TaxID, c.PersonalID, c.Email)
		if err != nil {
			return err
		}
	}

	for _, c := range snap.Campaigns {
		_, err = tx.Exec(ctx, `INSERT INTO campaigns
    (id, cooperative, name, description, area, goal, donated, status,
     audit_comments, started_at, finished_at, paid, version)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			c.ID, c.Cooperative, c.Name, c.Description, c.Area, c.Goal, c.Donated,
			string(c.Status), c.AuditComments, c.StartedAt, c.FinishedAt, c.Paid, c.Version)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO fee_account (id, retained_fees, paused, synced_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET retained_fees = $1, paused = $2, synced_at = now()`,
		snap.Fees.RetainedFees, snap.Fees.Paused)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *SnapshotStore) Load(ctx context.Context) (port.Snapshot, bool, error) {
	var (
		snap     port.Snapshot
		syncedAt time.Time
	)

	err := s.pool.QueryRow(ctx,
		`SELECT retained_fees, paused, synced_at FROM fee_account WHERE id = 1`).
		Scan(&snap.Fees.RetainedFees, &snap.Fees.Paused, &syncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.Snapshot{}, false, nil
	}
	if err != nil {
		return port.Snapshot{}, false, err
	}

	rows, err := s.pool.Query(ctx, `SELECT address, vault, name, tax_id, personal_id, email
FROM cooperatives ORDER BY address`)
	if err != nil {
		return port.Snapshot{}, false, err
	}
	snap.Cooperatives, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Cooperative, error) {
		var c domain.Cooperative
		err := row.Scan(&c.Address, &c.Vault, &c.Name, &c.TaxID, &c.PersonalID, &c.Email)
		return c, err
	})
	if err != nil {
		return port.Snapshot{}, false, err
	}

	rows, err = s.pool.Query(ctx, `SELECT id, cooperative, name, description, area, goal, donated,
    status, audit_comments, started_at, finished_at, paid, version
FROM campaigns ORDER BY id`)
	if err != nil {
		return port.Snapshot{}, false, err
	}
	snap.Campaigns, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		var (
			c      domain.Campaign
			status string
		)
		err := row.Scan(&c.ID, &c.Cooperative, &c.Name, &c.Description, &c.Area, &c.Goal,
			&c.Donated, &status, &c.AuditComments, &c.StartedAt, &c.FinishedAt, &c.Paid, &c.Version)
		c.Status = domain.Status(status)
		return c, err
	})
	if err != nil {
		return port.Snapshot{}, false, err
	}

	return snap, true, nil
}
