package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/models"
)

func pendingClient() *models.ReferredClient {
	return &models.ReferredClient{
		ID:       primitive.NewObjectID(),
		Name:     "Jordan Reyes",
		Status:   models.ClientStatusPending,
		AgencyID: primitive.NewObjectID(),
	}
}

func TestPlanTransitionEnrollCreatesCommission(t *testing.T) {
	client := pendingClient()
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	commission, enrollmentDate, err := planTransition(client, models.ClientStatusEnrolled, 0.50, now)
	require.NoError(t, err)
	require.NotNil(t, commission)
	require.Equal(t, 500.0, commission.Amount)
	require.Equal(t, "2026-03", commission.Month)
	require.Equal(t, models.CommissionPending, commission.PaymentStatus)
	require.Equal(t, client.ID, commission.ClientID)
	require.Equal(t, client.AgencyID, commission.AgencyID)

	require.NotNil(t, enrollmentDate)
	require.Equal(t, now, *enrollmentDate)
}

func TestPlanTransitionReEnrollIsNoOp(t *testing.T) {
	client := pendingClient()
	client.Status = models.ClientStatusEnrolled

	commission, enrollmentDate, err := planTransition(client, models.ClientStatusEnrolled, 0.50, time.Now())
	require.NoError(t, err)
	require.Nil(t, commission, "re-saving an enrolled client must not double-bill")
	require.NotNil(t, enrollmentDate)
}

func TestPlanTransitionLeavingEnrolledKeepsHistory(t *testing.T) {
	client := pendingClient()
	client.Status = models.ClientStatusEnrolled

	for _, next := range []string{models.ClientStatusPending, models.ClientStatusNotEnrolled} {
		commission, enrollmentDate, err := planTransition(client, next, 0.50, time.Now())
		require.NoError(t, err)
		require.Nil(t, commission)
		require.Nil(t, enrollmentDate, "enrollment date clears when leaving enrolled")
	}
}

func TestPlanTransitionFromNotEnrolledToEnrolled(t *testing.T) {
	client := pendingClient()
	client.Status = models.ClientStatusNotEnrolled

	commission, _, err := planTransition(client, models.ClientStatusEnrolled, 0.75, time.Now())
	require.NoError(t, err)
	require.NotNil(t, commission, "a corrective re-enrollment still earns a commission")
	require.Equal(t, 750.0, commission.Amount)
}

func TestPlanTransitionRejectsUnknownStatus(t *testing.T) {
	_, _, err := planTransition(pendingClient(), "cancelled", 0.50, time.Now())
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestPlanTransitionPendingToNotEnrolled(t *testing.T) {
	commission, enrollmentDate, err := planTransition(pendingClient(), models.ClientStatusNotEnrolled, 0.50, time.Now())
	require.NoError(t, err)
	require.Nil(t, commission)
	require.Nil(t, enrollmentDate)
}

func TestCommissionMonthIsUTCBucket(t *testing.T) {
	client := pendingClient()
	// Late evening in a western timezone is already the next month in UTC.
	loc := time.FixedZone("UTC-7", -7*3600)
	now := time.Date(2026, time.January, 31, 22, 0, 0, 0, loc)

	commission, _, err := planTransition(client, models.ClientStatusEnrolled, 0.50, now)
	require.NoError(t, err)
	require.Equal(t, "2026-02", commission.Month)
}

// memClientStore backs the lifecycle engine with an in-memory client. The
// reported status, when set, diverges from the stored one to simulate a
// stale read racing a concurrent transition.
type memClientStore struct {
	client         *models.ReferredClient
	reportedStatus string
}

func (m *memClientStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.ReferredClient, error) {
	if m.client == nil || m.client.ID != id {
		return nil, models.ErrNotFound
	}
	snapshot := *m.client
	if m.reportedStatus != "" {
		snapshot.Status = m.reportedStatus
	}
	return &snapshot, nil
}

func (m *memClientStore) CompareAndSetStatus(_ context.Context, id primitive.ObjectID, expected, next string, enrollmentDate *time.Time) (*models.ReferredClient, error) {
	if m.client == nil || m.client.ID != id {
		return nil, models.ErrNotFound
	}
	if m.client.Status != expected {
		return nil, models.ErrConcurrentModification
	}
	updated := *m.client
	updated.Status = next
	updated.EnrollmentDate = enrollmentDate
	m.client = &updated
	snapshot := updated
	return &snapshot, nil
}

// memCommissionStore enforces the same (clientId, month) uniqueness and
// pending-only MarkPaid guard as the real collection.
type memCommissionStore struct {
	records []*models.Commission
}

func (m *memCommissionStore) Insert(_ context.Context, commission *models.Commission) error {
	for _, existing := range m.records {
		if existing.ClientID == commission.ClientID && existing.Month == commission.Month {
			return models.ErrConcurrentModification
		}
	}
	if commission.ID.IsZero() {
		commission.ID = primitive.NewObjectID()
	}
	stored := *commission
	m.records = append(m.records, &stored)
	return nil
}

func (m *memCommissionStore) MarkPaid(_ context.Context, id primitive.ObjectID, notes string) (*models.Commission, bool, error) {
	for _, record := range m.records {
		if record.ID != id {
			continue
		}
		if record.PaymentStatus != models.CommissionPending {
			snapshot := *record
			return &snapshot, false, nil
		}
		now := time.Now()
		record.PaymentStatus = models.CommissionPaid
		record.PaidAt = &now
		record.PaymentNotes = notes
		snapshot := *record
		return &snapshot, true, nil
	}
	return nil, false, models.ErrNotFound
}

func newTestEnrollmentService(clients clientStore, commissions commissionStore) *EnrollmentService {
	return &EnrollmentService{clients: clients, commissions: commissions, rate: 0.50}
}

func TestApplyTransitionEnrollPersistsCommission(t *testing.T) {
	client := pendingClient()
	clients := &memClientStore{client: client}
	commissions := &memCommissionStore{}
	svc := newTestEnrollmentService(clients, commissions)

	updated, earned, err := svc.applyTransition(context.Background(), client.ID, models.ClientStatusEnrolled)
	require.NoError(t, err)
	require.Equal(t, models.ClientStatusEnrolled, updated.Status)
	require.NotNil(t, updated.EnrollmentDate)

	require.NotNil(t, earned)
	require.Len(t, commissions.records, 1)
	require.Equal(t, 500.0, commissions.records[0].Amount)
	require.Equal(t, client.ID, commissions.records[0].ClientID)
	require.Equal(t, client.AgencyID, commissions.records[0].AgencyID)
}

func TestApplyTransitionLostRaceSurfacesConflict(t *testing.T) {
	client := pendingClient()
	client.Status = models.ClientStatusEnrolled
	// The read sees pending, but another transition already enrolled the
	// client before the compare-and-set lands.
	clients := &memClientStore{client: client, reportedStatus: models.ClientStatusPending}
	commissions := &memCommissionStore{}
	svc := newTestEnrollmentService(clients, commissions)

	_, _, err := svc.applyTransition(context.Background(), client.ID, models.ClientStatusEnrolled)
	require.ErrorIs(t, err, models.ErrConcurrentModification)
	require.Empty(t, commissions.records, "a lost race must not bill")
}

func TestApplyTransitionDuplicateMonthSurfacesConflict(t *testing.T) {
	client := pendingClient()
	clients := &memClientStore{client: client}
	commissions := &memCommissionStore{records: []*models.Commission{{
		ID:            primitive.NewObjectID(),
		ClientID:      client.ID,
		AgencyID:      client.AgencyID,
		Month:         time.Now().UTC().Format("2006-01"),
		PaymentStatus: models.CommissionPending,
	}}}
	svc := newTestEnrollmentService(clients, commissions)

	_, _, err := svc.applyTransition(context.Background(), client.ID, models.ClientStatusEnrolled)
	require.ErrorIs(t, err, models.ErrConcurrentModification)
	require.Len(t, commissions.records, 1, "the month's commission must stay unique")
}

func TestApplyTransitionMissingClient(t *testing.T) {
	svc := newTestEnrollmentService(&memClientStore{}, &memCommissionStore{})

	_, _, err := svc.applyTransition(context.Background(), primitive.NewObjectID(), models.ClientStatusEnrolled)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestPayIsIdempotent(t *testing.T) {
	commissionID := primitive.NewObjectID()
	commissions := &memCommissionStore{records: []*models.Commission{{
		ID:            commissionID,
		Month:         "2026-03",
		Amount:        500.0,
		PaymentStatus: models.CommissionPending,
	}}}
	svc := newTestEnrollmentService(&memClientStore{}, commissions)

	first, err := svc.Pay(context.Background(), commissionID, "wire transfer 1042")
	require.NoError(t, err)
	require.Equal(t, models.CommissionPaid, first.PaymentStatus)
	require.NotNil(t, first.PaidAt)
	require.Equal(t, "wire transfer 1042", first.PaymentNotes)

	second, err := svc.Pay(context.Background(), commissionID, "different notes")
	require.NoError(t, err)
	require.Equal(t, models.CommissionPaid, second.PaymentStatus)
	require.Equal(t, first.PaidAt, second.PaidAt, "repeat pay must not restamp paidAt")
	require.Equal(t, first.Amount, second.Amount)
	require.Equal(t, first.Month, second.Month)
	require.Equal(t, "wire transfer 1042", second.PaymentNotes, "repeat pay must not overwrite notes")
}

func TestPayUnknownCommission(t *testing.T) {
	svc := newTestEnrollmentService(&memClientStore{}, &memCommissionStore{})

	_, err := svc.Pay(context.Background(), primitive.NewObjectID(), "")
	require.ErrorIs(t, err, models.ErrNotFound)
}
