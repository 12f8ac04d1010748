package persistence

import (
	"time"

	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/devicehub/infrastructure/persistence/models"
)

func toDomainJob(row *models.Job) *job.Job {
	return &job.Job{
		ID:          row.ID,
		PropertyID:  row.PropertyID,
		RequestedBy: row.RequestedBy,
		Status:      job.Status(row.Status),
		CreatedAt:   row.CreatedAt,
		ClaimedAt:   nullableTime(row.ClaimedAt.Time, row.ClaimedAt.Valid),
	}
}

func toDomainListItem(row *models.JobListItem) job.ListItem {
	return job.ListItem{
		JobID:               row.JobID,
		Status:              job.Status(row.Status),
		PropertyNo:          row.PropertyNo,
		PropertyDescription: row.PropertyDescription,
		RequestedByName:     row.RequestedByName,
		CreatedAt:           row.CreatedAt,
		ClaimedAt:           nullableTime(row.ClaimedAt.Time, row.ClaimedAt.Valid),
	}
}

func nullableTime(t time.Time, valid bool) *time.Time {
	if !valid {
		return nil
	}
	return &t
}
