// controllers/client_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/services"
)

type ClientController struct {
	db          *mongo.Client
	clients     *repositories.ClientRepository
	commissions *repositories.CommissionRepository
	agencies    *repositories.AgencyRepository
	enrollment  *services.EnrollmentService
	resolver    *services.AccessResolver
}

func NewClientController(db *mongo.Client, clients *repositories.ClientRepository, commissions *repositories.CommissionRepository, agencies *repositories.AgencyRepository, enrollment *services.EnrollmentService, resolver *services.AccessResolver) *ClientController {
	return &ClientController{
		db:          db,
		clients:     clients,
		commissions: commissions,
		agencies:    agencies,
		enrollment:  enrollment,
		resolver:    resolver,
	}
}

// List returns the clients inside the actor's subtree, optionally filtered
// by status and a free-text search over name, email and phone.
func (cc *ClientController) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	status := c.QueryParam("status")
	if status != "" && !models.ValidClientStatus(status) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status filter",
		})
	}

	scope, err := cc.resolver.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}

	clients, err := cc.clients.List(ctx, scope, repositories.ClientFilter{
		Status: status,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load clients",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Clients retrieved",
		Data:    clients,
	})
}

// Get returns one client. A client owned by an agency outside the actor's
// subtree is reported as not found.
func (cc *ClientController) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid client ID",
		})
	}

	client, err := cc.loadScoped(ctx, actor, id)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Client not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if agency, err := cc.agencies.FindByID(ctx, client.AgencyID); err == nil {
		client.AgencyName = agency.Name
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Client retrieved",
		Data:    client,
	})
}

// loadScoped fetches a client and then checks the owning agency against the
// actor's scope. A denial is indistinguishable from a missing client.
func (cc *ClientController) loadScoped(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.ReferredClient, error) {
	client, err := cc.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := cc.resolver.CanAccess(ctx, actor, client.AgencyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	return client, nil
}

// Create registers a new client in the pending state. The admin names the
// owning agency in the request; an operator's client always lands in the
// operator's own agency.
func (cc *ClientController) Create(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.RegisterClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Name, a valid email and phone are required",
		})
	}

	var agencyID primitive.ObjectID
	if actor.IsAdmin() {
		if req.AgencyID == "" {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Agency ID is required",
			})
		}
		agencyID, err = primitive.ObjectIDFromHex(req.AgencyID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid agency ID",
			})
		}
	} else {
		if actor.AgencyID == nil {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Account is not attached to an agency",
			})
		}
		agencyID = *actor.AgencyID
	}

	exists, err := cc.agencies.Exists(ctx, agencyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Agency does not exist",
		})
	}

	client := &models.ReferredClient{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
		AgencyID: agencyID,
	}
	if err := cc.clients.Insert(ctx, client); err != nil {
		if errors.Is(err, models.ErrDuplicateClient) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A client with this email or phone already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to register client",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Client registered successfully",
		Data:    client,
	})
}

// Update rewrites a client's contact fields and notes. Status and owning
// agency are immutable here.
func (cc *ClientController) Update(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid client ID",
		})
	}

	var req models.UpdateClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Name, a valid email and phone are required",
		})
	}

	if _, err := cc.loadScoped(ctx, actor, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Client not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	client, err := cc.clients.Update(ctx, id, req)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Client not found",
		})
	case errors.Is(err, models.ErrDuplicateClient):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "A client with this email or phone already exists",
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update client",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Client updated successfully",
		Data:    client,
	})
}

// UpdateStatus drives the enrollment lifecycle. Admin only; entering the
// enrolled state creates the month's commission in the same transaction.
func (cc *ClientController) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid client ID",
		})
	}

	var req models.UpdateClientStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if !models.ValidClientStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status",
		})
	}

	client, err := cc.enrollment.Transition(ctx, id, req.Status)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Client not found",
		})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status transition",
		})
	case errors.Is(err, models.ErrConcurrentModification):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Client was modified concurrently, please retry",
		})
	case err != nil:
		c.Logger().Errorf("Failed to transition client %s: %v", id.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update client status",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Client status updated",
		Data:    client,
	})
}

// Delete removes a client and its commission history in one transaction.
// Admin only.
func (cc *ClientController) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid client ID",
		})
	}

	session, err := cc.db.StartSession()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete client",
		})
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := cc.clients.Remove(sc, id); err != nil {
			return nil, err
		}
		return nil, cc.commissions.RemoveByClient(sc, id)
	})
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Client not found",
		})
	case err != nil:
		c.Logger().Errorf("Failed to delete client %s: %v", id.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete client",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Client deleted successfully",
	})
}
