// controllers/commission_controller.go
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

type CommissionController struct {
	commissions *repositories.CommissionRepository
	enrollment  *services.EnrollmentService
	resolver    *services.AccessResolver
}

func NewCommissionController(commissions *repositories.CommissionRepository, enrollment *services.EnrollmentService, resolver *services.AccessResolver) *CommissionController {
	return &CommissionController{commissions: commissions, enrollment: enrollment, resolver: resolver}
}

// List returns the commissions inside the actor's subtree. Supports
// paymentStatus and month filters, plus groupBy=month for the bucketed view.
func (cc *CommissionController) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	paymentStatus := c.QueryParam("paymentStatus")
	if paymentStatus != "" && paymentStatus != models.CommissionPending && paymentStatus != models.CommissionPaid {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payment status filter",
		})
	}

	scope, err := cc.resolver.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}

	filter := repositories.CommissionFilter{
		PaymentStatus: paymentStatus,
		Month:         c.QueryParam("month"),
	}

	if c.QueryParam("groupBy") == "month" {
		groups, err := cc.commissions.GroupByMonth(ctx, scope, filter)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to load commissions",
			})
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Commissions grouped by month",
			Data:    groups,
		})
	}

	commissions, err := cc.commissions.List(ctx, scope, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load commissions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved",
		Data:    commissions,
	})
}

// Stats aggregates commission totals for the actor's scope.
func (cc *CommissionController) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	scope, err := cc.resolver.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}

	stats, err := cc.commissions.Stats(ctx, scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load commission stats",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission stats retrieved",
		Data:    stats,
	})
}

// Pay marks a pending commission as paid. Admin only, and idempotent: paying
// an already-paid commission changes nothing. A commission outside the
// actor's scope is reported as not found.
func (cc *CommissionController) Pay(c echo.Context) error {
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
			Message: "Invalid commission ID",
		})
	}

	var req models.PayCommissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	existing, err := cc.commissions.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	ok, err := cc.resolver.CanAccess(ctx, actor, existing.AgencyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission not found",
		})
	}

	commission, err := cc.enrollment.Pay(ctx, id, req.PaymentNotes)
	if errors.Is(err, models.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission not found",
		})
	}
	if err != nil {
		c.Logger().Errorf("Failed to pay commission %s: %v", id.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to pay commission",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission marked as paid",
		Data:    commission,
	})
}
