package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/refchain/commission_backend/models"
)

func TestLastTwelveMonthsKeepsRecentBuckets(t *testing.T) {
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	groups := []models.MonthlyCommissionGroup{
		{Month: "2026-08"},
		{Month: "2025-09"},
		{Month: "2025-08"}, // thirteen months back, dropped
		{Month: "2024-12"},
	}

	kept := lastTwelveMonths(groups, now)
	require.Len(t, kept, 2)
	require.Equal(t, "2026-08", kept[0].Month)
	require.Equal(t, "2025-09", kept[1].Month)
}

func TestLastTwelveMonthsEmptyInput(t *testing.T) {
	kept := lastTwelveMonths(nil, time.Now())
	require.NotNil(t, kept)
	require.Empty(t, kept)
}

func TestClientRowsIncludeHeaderAndDates(t *testing.T) {
	enrolled := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	rows := clientRows([]models.ReferredClient{
		{
			Name:           "Dana Reyes",
			Email:          "dana@example.com",
			Phone:          "555-0100",
			Status:         models.ClientStatusEnrolled,
			AgencyName:     "North Branch",
			EnrollmentDate: &enrolled,
			CreatedAt:      time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Name:      "Lee Park",
			Status:    models.ClientStatusPending,
			CreatedAt: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
		},
	})

	require.Len(t, rows, 3)
	require.Equal(t, "Name", rows[0][0])
	require.Equal(t, "2026-03-03", rows[1][5])
	require.Equal(t, "", rows[2][5]) // no enrollment date while pending
}

func TestCommissionRowsFormatAmount(t *testing.T) {
	rows := commissionRows([]models.Commission{
		{
			ClientName:    "Dana Reyes",
			AgencyName:    "North Branch",
			Month:         "2026-03",
			Amount:        500,
			PaymentStatus: models.CommissionPending,
		},
	})

	require.Len(t, rows, 2)
	require.Equal(t, "500.00", rows[1][3])
	require.Equal(t, "", rows[1][5]) // unpaid, no paidAt
}
