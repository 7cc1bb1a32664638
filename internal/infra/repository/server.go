package repository

import (
	"context"

	"hostdash/internal/domain/server"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const serverColumns = `id, owner_id, remote_server_id, remote_identifier, name, egg_id, location_id,
	disk_mb, memory_mb, cpu_percent, backups, databases, allocations,
	status, created_at, updated_at`

type ServerRepository struct {
	db db.DBTX
}

func NewServerRepository(db db.DBTX) *ServerRepository {
	return &ServerRepository{db: db}
}

func (r *ServerRepository) Create(ctx context.Context, s *server.Server) error {
	l := s.Limits()
	_, err := r.db.Exec(ctx, `
		INSERT INTO servers (`+serverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID(), s.OwnerID(), s.RemoteServerID(), s.RemoteIdentifier(), s.Name(), s.EggID(), s.LocationID(),
		l.DiskMB, l.MemoryMB, l.CPUPercent, l.Backups, l.Databases, l.Allocations,
		s.Status().String(), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create server", err)
	}
	return nil
}

func (r *ServerRepository) FindByID(ctx context.Context, id uuid.UUID) (*server.Server, error) {
	row := r.db.QueryRow(ctx, `SELECT `+serverColumns+` FROM servers WHERE id = $1`, id)
	s, err := scanServer(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find server by id", err)
	}
	return s, nil
}

func (r *ServerRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*server.Server, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+serverColumns+` FROM servers
		WHERE owner_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list servers by owner", err)
	}
	servers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*server.Server, error) {
		return scanServer(row)
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan servers", err)
	}
	return servers, nil
}

func (r *ServerRepository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM servers WHERE location_id = $1`, locationID).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count servers by location", err)
	}
	return n, nil
}

func (r *ServerRepository) Update(ctx context.Context, s *server.Server) error {
	l := s.Limits()
	tag, err := r.db.Exec(ctx, `
		UPDATE servers SET
			name = $2,
			disk_mb = $3, memory_mb = $4, cpu_percent = $5,
			backups = $6, databases = $7, allocations = $8,
			status = $9, updated_at = $10
		WHERE id = $1`,
		s.ID(), s.Name(),
		l.DiskMB, l.MemoryMB, l.CPUPercent, l.Backups, l.Databases, l.Allocations,
		s.Status().String(), s.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update server", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("server not found")
	}
	return nil
}

func (r *ServerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id); err != nil {
		return infra.WrapRepoErr("failed to delete server", err)
	}
	return nil
}

func scanServer(row pgx.Row) (*server.Server, error) {
	var (
		p      server.ReconstructParams
		status string
	)
	l := &p.Limits
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.RemoteServerID, &p.RemoteIdentifier, &p.Name, &p.EggID, &p.LocationID,
		&l.DiskMB, &l.MemoryMB, &l.CPUPercent, &l.Backups, &l.Databases, &l.Allocations,
		&status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = server.Status(status)
	return server.Reconstruct(p), nil
}
