package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetDailyRevenue(ctx context.Context, arg database.GetDailyRevenueParams) ([]database.GetDailyRevenueRow, error)
	GetServiceSales(ctx context.Context, arg database.GetServiceSalesParams) ([]database.GetServiceSalesRow, error)
	GetPaymentSummary(ctx context.Context, arg database.GetPaymentSummaryParams) ([]database.GetPaymentSummaryRow, error)
	GetOutletComparison(ctx context.Context, arg database.GetOutletComparisonParams) ([]database.GetOutletComparisonRow, error)
}

// ReportsHandler handles revenue report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers outlet-scoped report endpoints.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-revenue", h.DailyRevenue)
	r.Get("/service-sales", h.ServiceSales)
	r.Get("/payment-summary", h.PaymentSummary)
}

// RegisterOwnerRoutes registers owner-only report endpoints.
// Expected to be mounted at the root level: /reports
func (h *ReportsHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Get("/outlet-comparison", h.OutletComparison)
}

// --- Response types ---

type dailyRevenueResponse struct {
	Date          string `json:"date"`
	OrderCount    int64  `json:"order_count"`
	TotalRevenue  string `json:"total_revenue"`
	TotalDiscount string `json:"total_discount"`
}

type serviceSalesResponse struct {
	ServiceID    uuid.UUID `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	QuantitySold string    `json:"quantity_sold"`
	TotalRevenue string    `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMethod    string `json:"payment_method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

type outletComparisonResponse struct {
	OutletID     uuid.UUID `json:"outlet_id"`
	OutletName   string    `json:"outlet_name"`
	OrderCount   int64     `json:"order_count"`
	TotalRevenue string    `json:"total_revenue"`
}

// --- Handlers ---

// DailyRevenue returns per-day order totals for a date range.
func (h *ReportsHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetDailyRevenue(r.Context(), database.GetDailyRevenueParams{
		OutletID:  outletID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: get daily revenue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailyRevenueResponse, len(rows))
	for i, row := range rows {
		date := "N/A"
		if row.Day.Valid {
			date = row.Day.Time.Format("2006-01-02")
		}
		resp[i] = dailyRevenueResponse{
			Date:          date,
			OrderCount:    row.OrderCount,
			TotalRevenue:  numericToString(row.TotalRevenue),
			TotalDiscount: numericToString(row.TotalDiscount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ServiceSales returns top services by revenue over a date range.
func (h *ReportsHandler) ServiceSales(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := h.store.GetServiceSales(r.Context(), database.GetServiceSalesParams{
		OutletID:  outletID,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     int32(limit),
	})
	if err != nil {
		log.Printf("ERROR: get service sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceSalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = serviceSalesResponse{
			ServiceID:    row.ServiceID,
			ServiceName:  row.ServiceName,
			QuantitySold: numericToString(row.QuantitySold),
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// PaymentSummary returns the payment method breakdown over a date range.
func (h *ReportsHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetPaymentSummary(r.Context(), database.GetPaymentSummaryParams{
		OutletID:  outletID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: get payment summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = paymentSummaryResponse{
			PaymentMethod:    row.PaymentMethod,
			TransactionCount: row.TransactionCount,
			TotalAmount:      numericToString(row.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// OutletComparison returns cross-outlet order volume and revenue (owner only).
func (h *ReportsHandler) OutletComparison(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.Role != "OWNER" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "owner access required"})
		return
	}

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetOutletComparison(r.Context(), database.GetOutletComparisonParams{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		log.Printf("ERROR: get outlet comparison: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]outletComparisonResponse, len(rows))
	for i, row := range rows {
		resp[i] = outletComparisonResponse{
			OutletID:     row.OutletID,
			OutletName:   row.OutletName,
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToString(row.TotalRevenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// parseDateRange parses start_date and end_date query params in Asia/Jakarta
// time, defaulting to the last 30 days. The returned endDate is exclusive
// (next day midnight) so a single-day range covers the full day.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}

	now := time.Now().In(loc)
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -30)
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		startDate = t
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		endDate = t.AddDate(0, 0, 1)
	}

	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}

	return startDate, endDate, nil
}
