// controllers/report_controller.go
package controllers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/services"
)

type ReportController struct {
	clients     *repositories.ClientRepository
	commissions *repositories.CommissionRepository
	resolver    *services.AccessResolver
}

func NewReportController(clients *repositories.ClientRepository, commissions *repositories.CommissionRepository, resolver *services.AccessResolver) *ReportController {
	return &ReportController{clients: clients, commissions: commissions, resolver: resolver}
}

type dashboardReport struct {
	ClientsByStatus map[string]int64                `json:"clientsByStatus"`
	Commissions     *models.CommissionStats         `json:"commissions"`
	MonthlyBuckets  []models.MonthlyCommissionGroup `json:"monthlyBuckets"`
}

// Dashboard returns the fixed summary for the actor's scope: client counts
// by status, commission totals and the last twelve monthly buckets.
func (rc *ReportController) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	scope, err := rc.resolver.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}

	report := dashboardReport{}
	if report.ClientsByStatus, err = rc.clients.CountByStatus(ctx, scope); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}
	if report.Commissions, err = rc.commissions.Stats(ctx, scope); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	groups, err := rc.commissions.GroupByMonth(ctx, scope, repositories.CommissionFilter{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}
	report.MonthlyBuckets = lastTwelveMonths(groups, time.Now().UTC())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved",
		Data:    report,
	})
}

// lastTwelveMonths keeps only the buckets from the twelve months ending at
// now. Month keys sort lexicographically because the format is YYYY-MM.
func lastTwelveMonths(groups []models.MonthlyCommissionGroup, now time.Time) []models.MonthlyCommissionGroup {
	cutoff := now.AddDate(0, -11, 0).Format("2006-01")
	kept := []models.MonthlyCommissionGroup{}
	for _, g := range groups {
		if g.Month >= cutoff {
			kept = append(kept, g)
		}
	}
	return kept
}

// Export streams a scope-filtered CSV of clients or commissions.
func (rc *ReportController) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	scope, err := rc.resolver.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve access",
		})
	}

	exportType := c.QueryParam("type")
	switch exportType {
	case "clients":
		clients, err := rc.clients.List(ctx, scope, repositories.ClientFilter{})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to export clients",
			})
		}
		return writeCSV(c, "clients.csv", clientRows(clients))
	case "commissions":
		commissions, err := rc.commissions.List(ctx, scope, repositories.CommissionFilter{})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to export commissions",
			})
		}
		return writeCSV(c, "commissions.csv", commissionRows(commissions))
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Export type must be clients or commissions",
		})
	}
}

func clientRows(clients []models.ReferredClient) [][]string {
	rows := [][]string{{"Name", "Email", "Phone", "Status", "Agency", "Enrollment Date", "Created At"}}
	for _, client := range clients {
		enrolled := ""
		if client.EnrollmentDate != nil {
			enrolled = client.EnrollmentDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			client.Name,
			client.Email,
			client.Phone,
			client.Status,
			client.AgencyName,
			enrolled,
			client.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows
}

func commissionRows(commissions []models.Commission) [][]string {
	rows := [][]string{{"Client", "Agency", "Month", "Amount", "Payment Status", "Paid At", "Notes"}}
	for _, commission := range commissions {
		paidAt := ""
		if commission.PaidAt != nil {
			paidAt = commission.PaidAt.Format("2006-01-02")
		}
		rows = append(rows, []string{
			commission.ClientName,
			commission.AgencyName,
			commission.Month,
			fmt.Sprintf("%.2f", commission.Amount),
			commission.PaymentStatus,
			paidAt,
			commission.PaymentNotes,
		})
	}
	return rows
}

func writeCSV(c echo.Context, filename string, rows [][]string) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(c.Response())
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
