package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakery-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const branchColumns = `id, name_en, name_ar, latitude, longitude, COALESCE(address, ''), is_active, created_at, updated_at`

const getActiveBranchByID = `SELECT ` + branchColumns + `
FROM branches
WHERE id = $1 AND is_active = TRUE`

const listActiveBranches = `SELECT ` + branchColumns + `
FROM branches
WHERE is_active = TRUE
ORDER BY id ASC`

type branchRepository struct {
	db DBTX
}

func NewBranchRepository(db DBTX) domain.BranchRepository {
	return &branchRepository{db: db}
}

type branchRow struct {
	ID        int64
	NameEn    string
	NameAr    string
	Latitude  pgtype.Float8
	Longitude pgtype.Float8
	Address   string
	IsActive  bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func (r *branchRow) scanTargets() []interface{} {
	return []interface{}{&r.ID, &r.NameEn, &r.NameAr, &r.Latitude, &r.Longitude, &r.Address, &r.IsActive, &r.CreatedAt, &r.UpdatedAt}
}

func (r branchRow) toDomain() domain.Branch {
	return domain.Branch{
		ID:        r.ID,
		NameEn:    r.NameEn,
		NameAr:    r.NameAr,
		Latitude:  float8ToPtr(r.Latitude),
		Longitude: float8ToPtr(r.Longitude),
		Address:   r.Address,
		IsActive:  r.IsActive,
		CreatedAt: pgtimeToTime(r.CreatedAt),
		UpdatedAt: pgtimeToTime(r.UpdatedAt),
	}
}

func (r *branchRepository) GetActiveBranchByID(ctx context.Context, id int64) (*domain.Branch, error) {
	start := time.Now()
	var row branchRow
	err := r.db.QueryRow(ctx, getActiveBranchByID, id).Scan(row.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		logQuery(ctx, "GetActiveBranchByID", start, nil)
		return nil, fmt.Errorf("%w: id %d", domain.ErrBranchNotFound, id)
	}
	logQuery(ctx, "GetActiveBranchByID", start, err)
	if err != nil {
		return nil, err
	}

	b := row.toDomain()
	return &b, nil
}

func (r *branchRepository) ListActiveBranches(ctx context.Context) ([]domain.Branch, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, listActiveBranches)
	if err != nil {
		logQuery(ctx, "ListActiveBranches", start, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Branch
	for rows.Next() {
		var row branchRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, err
		}
		result = append(result, row.toDomain())
	}
	err = rows.Err()
	logQuery(ctx, "ListActiveBranches", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}
