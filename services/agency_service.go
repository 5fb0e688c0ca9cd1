// services/agency_service.go
package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/utils"
)

// AgencyService owns the multi-step agency mutations: creation together
// with the operator account, and deletion together with the cascade over
// the agency's own users, clients and commissions. Each runs as one Mongo
// transaction so a half-created agency (row without operator) can never be
// observed.
type AgencyService struct {
	db          *mongo.Client
	agencies    *repositories.AgencyRepository
	users       *repositories.UserRepository
	clients     *repositories.ClientRepository
	commissions *repositories.CommissionRepository
	resolver    *AccessResolver
}

func NewAgencyService(db *mongo.Client, agencies *repositories.AgencyRepository, users *repositories.UserRepository, clients *repositories.ClientRepository, commissions *repositories.CommissionRepository, resolver *AccessResolver) *AgencyService {
	return &AgencyService{
		db:          db,
		agencies:    agencies,
		users:       users,
		clients:     clients,
		commissions: commissions,
		resolver:    resolver,
	}
}

// Create inserts a new agency under the parent the resolver decides for
// this actor, plus its operator account, in one transaction. The operator
// password is always auto-generated and returned exactly once.
func (s *AgencyService) Create(ctx context.Context, actor models.Actor, req models.CreateAgencyRequest) (*models.CreatedAgencyResponse, error) {
	var requested *primitive.ObjectID
	if req.ParentAgencyID != "" {
		id, err := primitive.ObjectIDFromHex(req.ParentAgencyID)
		if err != nil {
			return nil, models.ErrInvalidParent
		}
		requested = &id
	}
	parentID := s.resolver.ResolveCreationParent(actor, requested)

	password, err := utils.GeneratePassword(14)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	session, err := s.db.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if parentID != nil {
			exists, err := s.agencies.Exists(sc, *parentID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, models.ErrInvalidParent
			}
		}

		agency := &models.Agency{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			ParentAgencyID: parentID,
		}
		if err := s.agencies.Insert(sc, agency); err != nil {
			return nil, err
		}

		operator := &models.User{
			Email:    req.Email,
			Password: passwordHash,
			Role:     models.RoleAgency,
			AgencyID: &agency.ID,
			IsActive: true,
		}
		if err := s.users.Insert(sc, operator); err != nil {
			return nil, err
		}
		return agency, nil
	})
	if err != nil {
		return nil, err
	}

	agency := result.(*models.Agency)
	if err := utils.SendOperatorCredentials(agency.Name, agency.Email, password); err != nil {
		log.Printf("Failed to email operator credentials for agency %s: %v", agency.ID.Hex(), err)
	}

	return &models.CreatedAgencyResponse{
		Agency:          *agency,
		DefaultPassword: password,
	}, nil
}

// Delete removes a childless agency and cascades to its own operator
// accounts, clients and commissions. An agency with sub-agencies is
// refused; the structure of the tree is never cascaded.
func (s *AgencyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	session, err := s.db.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		hasChildren, err := s.agencies.HasChildren(sc, id)
		if err != nil {
			return nil, err
		}
		if hasChildren {
			return nil, models.ErrHasChildren
		}

		if err := s.agencies.Remove(sc, id); err != nil {
			return nil, err
		}
		if err := s.users.RemoveByAgency(sc, id); err != nil {
			return nil, err
		}
		if err := s.clients.RemoveByAgency(sc, id); err != nil {
			return nil, err
		}
		if err := s.commissions.RemoveByAgency(sc, id); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
