package persistence

import (
	"github.com/iota-uz/pims/modules/auditlog/domain/entities/record"
	"github.com/iota-uz/pims/modules/auditlog/infrastructure/persistence/models"
)

func toDomainRecord(row *models.AuditRecord) *record.Record {
	return &record.Record{
		ID:         row.ID,
		ActorID:    nullableUint(row.ActorID.Int64, row.ActorID.Valid),
		Action:     row.Action,
		PropertyID: nullableUint(row.PropertyID.Int64, row.PropertyID.Valid),
		Details:    row.Details,
		CreatedAt:  row.CreatedAt,
	}
}

func toDomainListItem(row *models.AuditListItem) record.ListItem {
	return record.ListItem{
		Record:    *toDomainRecord(&row.AuditRecord),
		ActorName: row.ActorName.String,
	}
}

func nullableUint(v int64, valid bool) *uint {
	if !valid {
		return nil
	}
	u := uint(v)
	return &u
}
