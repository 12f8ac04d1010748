package dtos

import (
	"time"

	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/pkg/constants"
)

type EnqueueDTO struct {
	PropertyID uint `json:"propertyId" validate:"required"`
}

func (d *EnqueueDTO) Ok() error {
	return constants.Validate.Struct(d)
}

type JobResponse struct {
	ID         uint       `json:"id"`
	PropertyID uint       `json:"propertyId"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
}

func NewJobResponse(j *job.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		PropertyID: j.PropertyID,
		Status:     string(j.Status),
		CreatedAt:  j.CreatedAt,
		ClaimedAt:  j.ClaimedAt,
	}
}

// DisplayPayload is the e-ink tag rendition of a property.
type DisplayPayload struct {
	PropertyNo        string `json:"productNumber"`
	Description       string `json:"description"`
	AccountablePerson string `json:"accountablePerson"`
}

func NewDisplayPayload(target *job.DisplayTarget) DisplayPayload {
	return DisplayPayload{
		PropertyNo:        target.PropertyNo,
		Description:       target.Description,
		AccountablePerson: target.AccountablePerson,
	}
}

type ListItemResponse struct {
	JobID               uint       `json:"jobId"`
	Status              string     `json:"status"`
	PropertyNo          string     `json:"propertyNo"`
	PropertyDescription string     `json:"propertyDescription"`
	RequestedByName     string     `json:"requestedByName"`
	CreatedAt           time.Time  `json:"jobCreatedAt"`
	ClaimedAt           *time.Time `json:"jobClaimedAt,omitempty"`
}

func NewListItemResponse(item job.ListItem) ListItemResponse {
	return ListItemResponse{
		JobID:               item.JobID,
		Status:              string(item.Status),
		PropertyNo:          item.PropertyNo,
		PropertyDescription: item.PropertyDescription,
		RequestedByName:     item.RequestedByName,
		CreatedAt:           item.CreatedAt,
		ClaimedAt:           item.ClaimedAt,
	}
}
