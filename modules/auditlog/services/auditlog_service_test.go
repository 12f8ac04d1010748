package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/pims/modules/auditlog/domain/entities/record"
	"github.com/iota-uz/pims/modules/auditlog/services"
	coreuser "github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/eventbus"
)

type memRecordRepository struct {
	records []record.Record
}

func (r *memRecordRepository) Create(ctx context.Context, rec record.Record) (*record.Record, error) {
	rec.ID = uint(len(r.records) + 1)
	rec.CreatedAt = time.Now()
	r.records = append(r.records, rec)
	return &rec, nil
}

func (r *memRecordRepository) GetPaginated(ctx context.Context, params *record.FindParams) ([]record.ListItem, int64, error) {
	out := make([]record.ListItem, 0, len(r.records))
	for _, rec := range r.records {
		if params != nil && params.Action != "" && rec.Action != params.Action {
			continue
		}
		out = append(out, record.ListItem{Record: rec})
	}
	return out, int64(len(out)), nil
}

func newAuditFixture() (*memRecordRepository, *services.AuditLogService, eventbus.EventBus) {
	repo := &memRecordRepository{}
	log := logrus.New()
	svc := services.NewAuditLogService(repo, nil, log)
	bus := eventbus.NewEventPublisher(log)
	svc.Register(bus)
	return repo, svc, bus
}

func TestAuditLogService_RecordsAssignmentEvents(t *testing.T) {
	repo, _, bus := newAuditFixture()

	bus.Publish(assignment.CustodianAssignedEvent{
		PropertyID:  10,
		CustodianID: 2,
		AssignedBy:  1,
	})
	bus.Publish(assignment.ReassignmentReviewedEvent{
		RequestID:  7,
		PropertyID: 10,
		ReviewedBy: 9,
		Status:     assignment.StatusApproved,
	})

	require.Len(t, repo.records, 2)
	assert.Equal(t, "custodian_assigned", repo.records[0].Action)
	require.NotNil(t, repo.records[0].ActorID)
	assert.Equal(t, uint(1), *repo.records[0].ActorID)
	assert.Equal(t, "reassignment_approved", repo.records[1].Action)
}

func TestAuditLogService_RecordsDeviceEventsWithoutActor(t *testing.T) {
	repo, _, bus := newAuditFixture()

	bus.Publish(job.ClaimedEvent{Kind: "print", JobID: 3, PropertyID: 10})

	require.Len(t, repo.records, 1)
	assert.Equal(t, "print_job_claimed", repo.records[0].Action)
	assert.Nil(t, repo.records[0].ActorID)
}

func TestAuditLogService_ListRequiresAdminRole(t *testing.T) {
	_, svc, bus := newAuditFixture()
	bus.Publish(job.EnqueuedEvent{Kind: "display", JobID: 1, PropertyID: 10, RequestedBy: 3})

	staff := coreuser.Hydrate(3, "Staff", "staff@example.com", "", coreuser.RoleStaff, "", time.Now())
	_, _, err := svc.GetPaginated(context.Background(), staff, nil)
	require.ErrorIs(t, err, authz.ErrForbidden)

	admin := coreuser.Hydrate(1, "Admin", "admin@example.com", "", coreuser.RoleAdmin, "", time.Now())
	items, total, err := svc.GetPaginated(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "display_job_enqueued", items[0].Action)
}
