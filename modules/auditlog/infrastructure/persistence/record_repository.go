package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/iota-uz/pims/modules/auditlog/domain/entities/record"
	"github.com/iota-uz/pims/modules/auditlog/infrastructure/persistence/models"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/repo"
)

const (
	recordInsertQuery = `
        INSERT INTO audit_records (actor_id, action, property_id, details)
        VALUES ($1, $2, $3, $4)
        RETURNING id, actor_id, action, property_id, details, created_at`

	recordListQuery = `
        SELECT
            ar.id,
            ar.actor_id,
            ar.action,
            ar.property_id,
            ar.details,
            ar.created_at,
            u.name
        FROM audit_records ar
        LEFT JOIN users u ON u.id = ar.actor_id`

	recordCountQuery = `SELECT COUNT(*) FROM audit_records ar`
)

type PgRecordRepository struct{}

func NewRecordRepository() record.Repository {
	return &PgRecordRepository{}
}

func (g *PgRecordRepository) Create(ctx context.Context, r record.Record) (*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.AuditRecord
	if err := tx.QueryRow(
		ctx,
		recordInsertQuery,
		nullableID(r.ActorID),
		r.Action,
		nullableID(r.PropertyID),
		r.Details,
	).Scan(
		&row.ID,
		&row.ActorID,
		&row.Action,
		&row.PropertyID,
		&row.Details,
		&row.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert audit record")
	}
	return toDomainRecord(&row), nil
}

func (g *PgRecordRepository) GetPaginated(ctx context.Context, params *record.FindParams) ([]record.ListItem, int64, error) {
	if params == nil {
		params = &record.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	if params.Action != "" {
		args = append(args, params.Action)
		conditions = append(conditions, fmt.Sprintf("ar.action = $%d", len(args)))
	}

	query := repo.Join(
		recordListQuery,
		repo.JoinWhere(conditions...),
		"ORDER BY ar.created_at DESC, ar.id DESC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query audit records")
	}
	defer rows.Close()

	out := make([]record.ListItem, 0)
	for rows.Next() {
		var row models.AuditListItem
		if err := rows.Scan(
			&row.ID,
			&row.ActorID,
			&row.Action,
			&row.PropertyID,
			&row.Details,
			&row.CreatedAt,
			&row.ActorName,
		); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan audit record")
		}
		out = append(out, toDomainListItem(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := repo.Join(recordCountQuery, repo.JoinWhere(conditions...))
	var total int64
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count audit records")
	}
	return out, total, nil
}

func nullableID(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
