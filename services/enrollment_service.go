// services/enrollment_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/websocket"
)

// commissionBase is the flat base the configured rate applies to, matching
// the standing billing agreement (rate 0.50 -> 500.00 per enrollment).
const commissionBase = 1000

// clientStore is the slice of the client repository the lifecycle engine
// needs. *repositories.ClientRepository satisfies it.
type clientStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ReferredClient, error)
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, expected, next string, enrollmentDate *time.Time) (*models.ReferredClient, error)
}

// commissionStore is the slice of the commission repository the lifecycle
// engine needs. *repositories.CommissionRepository satisfies it.
type commissionStore interface {
	Insert(ctx context.Context, commission *models.Commission) error
	MarkPaid(ctx context.Context, id primitive.ObjectID, notes string) (*models.Commission, bool, error)
}

// EnrollmentService drives the client lifecycle state machine. Moving into
// "enrolled" from any other state earns the owning agency exactly one
// commission for the current month; everything runs inside one Mongo
// transaction so the status check and the commission insert cannot
// interleave with a concurrent transition on the same client.
type EnrollmentService struct {
	db          *mongo.Client
	clients     clientStore
	commissions commissionStore
	hub         *websocket.Hub
	rate        float64
}

func NewEnrollmentService(db *mongo.Client, clients clientStore, commissions commissionStore, hub *websocket.Hub) *EnrollmentService {
	return &EnrollmentService{
		db:          db,
		clients:     clients,
		commissions: commissions,
		hub:         hub,
		rate:        commissionRateFromEnv(),
	}
}

func commissionRateFromEnv() float64 {
	rate := 0.50
	if raw := os.Getenv("COMMISSION_RATE"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			log.Printf("Warning: ignoring invalid COMMISSION_RATE %q", raw)
		} else {
			rate = parsed
		}
	}
	return rate
}

// planTransition decides what a status change does before anything is
// written: the enrollment date to store and the commission to create, if
// any. The commission fires only on an actual change into "enrolled"; a
// re-save of an already enrolled client earns nothing, and leaving
// "enrolled" never touches commissions already on record.
func planTransition(current *models.ReferredClient, next string, rate float64, now time.Time) (*models.Commission, *time.Time, error) {
	if !models.ValidClientStatus(next) {
		return nil, nil, models.ErrInvalidTransition
	}

	var enrollmentDate *time.Time
	if next == models.ClientStatusEnrolled {
		enrollmentDate = &now
	}

	if next != models.ClientStatusEnrolled || current.Status == models.ClientStatusEnrolled {
		return nil, enrollmentDate, nil
	}

	commission := &models.Commission{
		Amount:        rate * commissionBase,
		Month:         now.UTC().Format("2006-01"),
		PaymentStatus: models.CommissionPending,
		ClientID:      current.ID,
		AgencyID:      current.AgencyID,
	}
	return commission, enrollmentDate, nil
}

// Transition moves the client to the next lifecycle state. The read,
// compare-and-set status update and conditional commission insert commit as
// one unit; a concurrent transition on the same client loses the CAS (or
// trips the unique (clientId, month) index) and surfaces as
// models.ErrConcurrentModification.
func (s *EnrollmentService) Transition(ctx context.Context, clientID primitive.ObjectID, next string) (*models.ReferredClient, error) {
	if !models.ValidClientStatus(next) {
		return nil, models.ErrInvalidTransition
	}

	session, err := s.db.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var earned *models.Commission
	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		updated, commission, err := s.applyTransition(sc, clientID, next)
		earned = commission
		return updated, err
	})
	if err != nil {
		return nil, err
	}

	updated := result.(*models.ReferredClient)
	s.announceTransition(updated, next)
	if earned != nil && s.hub != nil {
		s.hub.Broadcast(websocket.Event{
			Type:    websocket.EventCommissionEarned,
			Message: fmt.Sprintf("Commission of %.2f earned for %s", earned.Amount, earned.Month),
			Data:    earned,
		})
	}
	return updated, nil
}

// applyTransition is the transactional body of Transition: stale read of the
// current state, plan, compare-and-set guarded on that state, conditional
// commission insert. A lost CAS or a duplicate (clientId, month) key both
// surface as models.ErrConcurrentModification from the stores.
func (s *EnrollmentService) applyTransition(ctx context.Context, clientID primitive.ObjectID, next string) (*models.ReferredClient, *models.Commission, error) {
	current, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}

	commission, enrollmentDate, err := planTransition(current, next, s.rate, time.Now())
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.clients.CompareAndSetStatus(ctx, clientID, current.Status, next, enrollmentDate)
	if err != nil {
		return nil, nil, err
	}

	if commission == nil {
		return updated, nil, nil
	}
	if err := s.commissions.Insert(ctx, commission); err != nil {
		return nil, nil, err
	}
	return updated, commission, nil
}

func (s *EnrollmentService) announceTransition(client *models.ReferredClient, next string) {
	if s.hub == nil {
		return
	}
	eventType := websocket.EventClientStatus
	message := fmt.Sprintf("Client %s moved to %s", client.Name, next)
	if next == models.ClientStatusEnrolled {
		eventType = websocket.EventClientEnrolled
		message = fmt.Sprintf("Client %s enrolled", client.Name)
	}
	s.hub.Broadcast(websocket.Event{
		Type:    eventType,
		Message: message,
		Data:    client,
	})
}

// Pay marks a commission as paid. Repeated calls are idempotent: the second
// pay leaves amount, month and the original paid timestamp untouched.
func (s *EnrollmentService) Pay(ctx context.Context, commissionID primitive.ObjectID, notes string) (*models.Commission, error) {
	commission, changed, err := s.commissions.MarkPaid(ctx, commissionID, notes)
	if err != nil {
		return nil, err
	}

	if changed && s.hub != nil {
		s.hub.Broadcast(websocket.Event{
			Type:    websocket.EventCommissionPaid,
			Message: fmt.Sprintf("Commission for %s paid", commission.Month),
			Data:    commission,
		})
	}
	return commission, nil
}
