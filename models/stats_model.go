package models

import "github.com/shopspring/decimal"

type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalBookings     int64           `json:"total_bookings"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	PendingBookings   int64           `json:"pending_bookings"`
	ConfirmedBookings int64           `json:"confirmed_bookings"`
	CancelledBookings int64           `json:"cancelled_bookings"`
}
