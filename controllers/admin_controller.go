// controllers/admin_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
)

type AdminController struct {
	agencies    *repositories.AgencyRepository
	users       *repositories.UserRepository
	clients     *repositories.ClientRepository
	commissions *repositories.CommissionRepository
}

func NewAdminController(agencies *repositories.AgencyRepository, users *repositories.UserRepository, clients *repositories.ClientRepository, commissions *repositories.CommissionRepository) *AdminController {
	return &AdminController{agencies: agencies, users: users, clients: clients, commissions: commissions}
}

type systemStats struct {
	TotalAgencies   int64                   `json:"totalAgencies"`
	TotalOperators  int64                   `json:"totalOperators"`
	ClientsByStatus map[string]int64        `json:"clientsByStatus"`
	Commissions     *models.CommissionStats `json:"commissions"`
}

// Stats returns system-wide counters. Admin only, so scope is the full set.
func (ac *AdminController) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	all := models.AgencyScope{All: true}
	stats := systemStats{}

	var err error
	if stats.TotalAgencies, err = ac.agencies.CountAll(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load system stats",
		})
	}
	if stats.TotalOperators, err = ac.users.CountOperators(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load system stats",
		})
	}
	if stats.ClientsByStatus, err = ac.clients.CountByStatus(ctx, all); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load system stats",
		})
	}
	if stats.Commissions, err = ac.commissions.Stats(ctx, all); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load system stats",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "System stats retrieved",
		Data:    stats,
	})
}

// Activity returns the most recent client registrations across all agencies.
func (ac *AdminController) Activity(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	clients, err := ac.clients.Recent(ctx, 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load recent activity",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Recent activity retrieved",
		Data:    clients,
	})
}
