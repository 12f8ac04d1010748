package services

import (
	"context"
	"errors"

	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/devicehub/permissions"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/eventbus"
)

// ClaimResult carries the claimed job together with the payload the
// device renders. Exactly one of Property and Display is set, by kind.
type ClaimResult struct {
	Job      *job.Job
	Property *property.Property
	Display  *job.DisplayTarget
}

type JobService struct {
	jobs       job.Repository
	properties property.Repository
	publisher  eventbus.EventBus
}

func NewJobService(
	jobs job.Repository,
	properties property.Repository,
	publisher eventbus.EventBus,
) *JobService {
	return &JobService{
		jobs:       jobs,
		properties: properties,
		publisher:  publisher,
	}
}

func (s *JobService) Enqueue(ctx context.Context, actor coreuser.User, kind job.Kind, propertyID uint) (*job.Job, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), enqueueAction(kind)); err != nil {
		return nil, err
	}
	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		return nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*job.Job, error) {
		pending, err := s.jobs.HasPending(txCtx, kind, propertyID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, job.ErrDuplicatePending
		}
		return s.jobs.Enqueue(txCtx, kind, job.Job{
			PropertyID:  propertyID,
			RequestedBy: actor.ID(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(job.EnqueuedEvent{
		Kind:        kind.Name,
		JobID:       created.ID,
		PropertyID:  created.PropertyID,
		RequestedBy: actor.ID(),
	})
	return created, nil
}

func enqueueAction(kind job.Kind) authz.Action {
	if kind == job.KindPrint {
		return permissions.EnqueuePrintJob
	}
	return permissions.EnqueueDisplayJob
}

// claimOutcome lets the transaction commit a failure marking: a job
// whose property vanished is marked failed, the transaction commits,
// and only then does the caller see ErrPropertyGone.
type claimOutcome struct {
	result *ClaimResult
	failed *job.Job
}

// Claim hands the oldest pending job of the kind to the calling device
// and resolves its payload in the same transaction. Returns (nil, nil)
// when the queue is empty.
func (s *JobService) Claim(ctx context.Context, kind job.Kind) (*ClaimResult, error) {
	outcome, err := composables.InTxResult(ctx, func(txCtx context.Context) (claimOutcome, error) {
		claimed, err := s.jobs.ClaimNext(txCtx, kind)
		if err != nil || claimed == nil {
			return claimOutcome{}, err
		}

		out := &ClaimResult{Job: claimed}
		switch kind {
		case job.KindPrint:
			entity, err := s.properties.GetByID(txCtx, claimed.PropertyID)
			if err != nil {
				return s.failJob(txCtx, kind, claimed, err)
			}
			out.Property = &entity
		case job.KindDisplay:
			target, err := s.jobs.GetDisplayTarget(txCtx, claimed.PropertyID)
			if err != nil {
				return s.failJob(txCtx, kind, claimed, err)
			}
			out.Display = target
		}
		return claimOutcome{result: out}, nil
	})
	if err != nil {
		return nil, err
	}
	if outcome.failed != nil {
		s.publisher.Publish(job.FailedEvent{
			Kind:       kind.Name,
			JobID:      outcome.failed.ID,
			PropertyID: outcome.failed.PropertyID,
		})
		return nil, job.ErrPropertyGone
	}
	if outcome.result == nil {
		return nil, nil
	}

	s.publisher.Publish(job.ClaimedEvent{
		Kind:       kind.Name,
		JobID:      outcome.result.Job.ID,
		PropertyID: outcome.result.Job.PropertyID,
	})
	return outcome.result, nil
}

// failJob marks the claimed job failed when its property has vanished
// mid-flight, so the queue never hands it out again. The marking must
// survive the transaction, so the outcome carries the failure instead
// of an error.
func (s *JobService) failJob(txCtx context.Context, kind job.Kind, claimed *job.Job, cause error) (claimOutcome, error) {
	if !errors.Is(cause, property.ErrNotFound) && !errors.Is(cause, job.ErrPropertyGone) {
		return claimOutcome{}, cause
	}
	if err := s.jobs.MarkFailed(txCtx, kind, claimed.ID); err != nil {
		return claimOutcome{}, err
	}
	return claimOutcome{failed: claimed}, nil
}

func (s *JobService) ListAll(ctx context.Context, actor coreuser.User, kind job.Kind) ([]job.ListItem, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ViewQueue); err != nil {
		return nil, err
	}
	return s.jobs.ListAll(ctx, kind)
}
