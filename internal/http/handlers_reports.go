package http

import (
	"net/http"
	"time"

	"finanse/internal/core"
	"finanse/internal/query"
)

// GET /api/dashboard?range=&from=&to=&chartRange=&chartFrom=&chartTo=&balanceRange=&balanceFrom=&balanceTo=
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseDashboardSelection(r.URL.Query(), s.location)
	if err != nil {
		s.fail(w, r, "dashboard", err)
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	NewResponse().Version(snap.Version).JSON(s.dashboard.Render(snap, sel)).Write(w)
}

type monthlyResponse struct {
	Months []query.MonthSummary `json:"months"`
}

// GET /api/monthly
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	months := s.monthly.Render(snap)
	if months == nil {
		months = []query.MonthSummary{}
	}
	NewResponse().Version(snap.Version).JSON(monthlyResponse{Months: months}).Write(w)
}

// GET /api/currency?month=YYYY-MM
func (s *Server) handleListCurrency(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		s.fail(w, r, "list currency", err)
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	NewResponse().Version(snap.Version).JSON(s.currencyLog.Render(snap, month)).Write(w)
}

// POST /api/currency
func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(w, r)
	if err := body.Parse(); err != nil {
		s.fail(w, r, "create currency entry", err)
		return
	}

	pln, err := core.ParseAmount(body.Get("plnAmount"))
	if err != nil {
		s.fail(w, r, "create currency entry", err)
		return
	}
	inr, err := core.ParseAmount(body.Get("inrAmount"))
	if err != nil {
		s.fail(w, r, "create currency entry", err)
		return
	}
	date := body.Get("date")
	if date == "" {
		date = time.Now().In(s.location).Format(core.DateLayout)
	}

	e, err := s.ledger.AddCurrencyEntry(r.Context(), core.CurrencyEntry{
		Date:        date,
		Description: body.Get("description"),
		PLNAmount:   pln,
		INRAmount:   inr,
	})
	if err != nil {
		s.fail(w, r, "create currency entry", err)
		return
	}
	s.appMetrics.currencyCreated.Add(1)

	NewResponse().
		Status(http.StatusCreated).
		Version(s.ledger.Version()).
		JSON(e).
		Write(w)
}

// DELETE /api/currency/{id}
func (s *Server) handleDeleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCurrencyEntry(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete currency entry", err)
		return
	}
	s.appMetrics.deletions.Add(1)
	NewResponse().Status(http.StatusNoContent).Version(s.ledger.Version()).Write(w)
}
