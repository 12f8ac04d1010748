package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/pims/modules/auditlog/domain/entities/record"
	"github.com/iota-uz/pims/modules/auditlog/permissions"
	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/eventbus"
)

// AuditLogService records every custody-relevant event. Writes happen
// on the event bus, off the request path, so a failed audit insert is
// logged and never fails the operation it describes.
type AuditLogService struct {
	repo record.Repository
	pool *pgxpool.Pool
	log  *logrus.Logger
}

func NewAuditLogService(repo record.Repository, pool *pgxpool.Pool, log *logrus.Logger) *AuditLogService {
	return &AuditLogService{repo: repo, pool: pool, log: log}
}

// Register subscribes the service to the events it keeps a trail of.
func (s *AuditLogService) Register(bus eventbus.EventBus) {
	bus.Subscribe(s.onCustodianAssigned)
	bus.Subscribe(s.onStaffDelegated)
	bus.Subscribe(s.onReassignmentRequested)
	bus.Subscribe(s.onReassignmentReviewed)
	bus.Subscribe(s.onPropertyCreated)
	bus.Subscribe(s.onPropertyUpdated)
	bus.Subscribe(s.onPropertyDeleted)
	bus.Subscribe(s.onJobEnqueued)
	bus.Subscribe(s.onJobClaimed)
	bus.Subscribe(s.onJobFailed)
}

func (s *AuditLogService) GetPaginated(ctx context.Context, actor coreuser.User, params *record.FindParams) ([]record.ListItem, int64, error) {
	if err := permissions.Policy.Enforce(string(actor.Role()), permissions.ViewAuditLog); err != nil {
		return nil, 0, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *AuditLogService) write(action string, actorID, propertyID *uint, details string) {
	ctx := composables.WithPool(context.Background(), s.pool)
	if _, err := s.repo.Create(ctx, record.Record{
		ActorID:    actorID,
		Action:     action,
		PropertyID: propertyID,
		Details:    details,
	}); err != nil {
		s.log.WithError(err).WithField("action", action).Error("auditlog: failed to record event")
	}
}

func (s *AuditLogService) onCustodianAssigned(e assignment.CustodianAssignedEvent) {
	s.write("custodian_assigned", &e.AssignedBy, &e.PropertyID,
		fmt.Sprintf("custodian %d assigned", e.CustodianID))
}

func (s *AuditLogService) onStaffDelegated(e assignment.StaffDelegatedEvent) {
	s.write("staff_delegated", &e.CustodianID, &e.PropertyID,
		fmt.Sprintf("delegated to staff %d", e.StaffID))
}

func (s *AuditLogService) onReassignmentRequested(e assignment.ReassignmentRequestedEvent) {
	s.write("reassignment_requested", &e.RequestedBy, &e.PropertyID,
		fmt.Sprintf("request %d: staff %d to staff %d", e.RequestID, e.FromStaffID, e.ToStaffID))
}

func (s *AuditLogService) onReassignmentReviewed(e assignment.ReassignmentReviewedEvent) {
	s.write("reassignment_"+string(e.Status), &e.ReviewedBy, &e.PropertyID,
		fmt.Sprintf("request %d %s", e.RequestID, e.Status))
}

func (s *AuditLogService) onPropertyCreated(e property.CreatedEvent) {
	s.write("property_created", &e.ActorID, &e.PropertyID, "")
}

func (s *AuditLogService) onPropertyUpdated(e property.UpdatedEvent) {
	s.write("property_updated", &e.ActorID, &e.PropertyID, "")
}

func (s *AuditLogService) onPropertyDeleted(e property.DeletedEvent) {
	s.write("property_deleted", &e.ActorID, &e.PropertyID, "")
}

func (s *AuditLogService) onJobEnqueued(e job.EnqueuedEvent) {
	s.write(e.Kind+"_job_enqueued", &e.RequestedBy, &e.PropertyID,
		fmt.Sprintf("job %d", e.JobID))
}

func (s *AuditLogService) onJobClaimed(e job.ClaimedEvent) {
	s.write(e.Kind+"_job_claimed", nil, &e.PropertyID,
		fmt.Sprintf("job %d", e.JobID))
}

func (s *AuditLogService) onJobFailed(e job.FailedEvent) {
	s.write(e.Kind+"_job_failed", nil, &e.PropertyID,
		fmt.Sprintf("job %d", e.JobID))
}
