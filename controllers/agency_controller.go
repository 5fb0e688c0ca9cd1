// controllers/agency_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/services"
)

type AgencyController struct {
	agencies *repositories.AgencyRepository
	service  *services.AgencyService
	resolver *services.AccessResolver
}

func NewAgencyController(agencies *repositories.AgencyRepository, service *services.AgencyService, resolver *services.AccessResolver) *AgencyController {
	return &AgencyController{agencies: agencies, service: service, resolver: resolver}
}

// Tree returns the flattened, level-stamped agency tree. The admin sees the
// whole forest; an operator sees only the subtree rooted at their home
// agency.
func (ac *AgencyController) Tree(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var root *primitive.ObjectID
	if !actor.IsAdmin() {
		if actor.AgencyID == nil {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Agency tree retrieved",
				Data:    []models.AgencyNode{},
			})
		}
		root = actor.AgencyID
	}

	nodes, err := ac.agencies.Tree(ctx, root)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load agency tree",
		})
	}
	if nodes == nil {
		nodes = []models.AgencyNode{}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agency tree retrieved",
		Data:    nodes,
	})
}

// Get returns one agency. An agency outside the actor's subtree is reported
// as not found, the same as a nonexistent one.
func (ac *AgencyController) Get(c echo.Context) error {
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
			Message: "Invalid agency ID",
		})
	}

	ok, err := ac.resolver.CanAccess(ctx, actor, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	}

	agency, err := ac.agencies.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agency retrieved",
		Data:    agency,
	})
}

// Details returns an agency with its client and commission aggregates.
func (ac *AgencyController) Details(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
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
			Message: "Invalid agency ID",
		})
	}

	ok, err := ac.resolver.CanAccess(ctx, actor, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	}

	details, err := ac.agencies.Details(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agency details retrieved",
		Data:    details,
	})
}

// Create registers a new agency and its operator account. An operator's new
// agency is always attached under the operator's own agency regardless of
// the parent named in the request.
func (ac *AgencyController) Create(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.CreateAgencyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Name and a valid email are required",
		})
	}

	created, err := ac.service.Create(ctx, actor, req)
	switch {
	case errors.Is(err, models.ErrInvalidParent):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Parent agency does not exist",
		})
	case errors.Is(err, models.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An agency with this email already exists",
		})
	case err != nil:
		c.Logger().Errorf("Failed to create agency: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create agency",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Agency created successfully",
		Data:    created,
	})
}

// Update rewrites an agency's contact fields. Admin only.
func (ac *AgencyController) Update(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agency ID",
		})
	}

	var req models.UpdateAgencyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Name and a valid email are required",
		})
	}

	agency, err := ac.agencies.Update(ctx, id, req)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	case errors.Is(err, models.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An agency with this email already exists",
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update agency",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agency updated successfully",
		Data:    agency,
	})
}

// Delete removes a childless agency and everything it owns. Admin only.
func (ac *AgencyController) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agency ID",
		})
	}

	err = ac.service.Delete(ctx, id)
	switch {
	case errors.Is(err, models.ErrHasChildren):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Agency still has sub-agencies",
		})
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agency not found",
		})
	case err != nil:
		c.Logger().Errorf("Failed to delete agency %s: %v", id.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete agency",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agency deleted successfully",
	})
}
