package http

import (
	"net/http"
	"strings"
	"time"

	"finanse/internal/core"
	"finanse/internal/view"
)

// GET /api/transactions?type=&range=&from=&to=&q=
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := ParseSelection(q, s.location)
	if err != nil {
		s.fail(w, r, "list transactions", err)
		return
	}
	typ, err := ParseTypeFilter(q.Get("type"))
	if err != nil {
		s.fail(w, r, "list transactions", err)
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	page := s.transactions.Render(snap, view.TransactionsSelection{
		Selection: sel,
		Type:      typ,
		Search:    strings.TrimSpace(q.Get("q")),
	})
	NewResponse().Version(snap.Version).JSON(page).Write(w)
}

// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(w, r)
	if err := body.Parse(); err != nil {
		s.fail(w, r, "create transaction", err)
		return
	}

	amount, err := core.ParseAmount(body.Get("amount"))
	if err != nil {
		s.fail(w, r, "create transaction", err)
		return
	}
	date := body.Get("date")
	if date == "" {
		date = time.Now().In(s.location).Format(core.DateLayout)
	}

	tx, err := s.ledger.AddTransaction(r.Context(), core.Transaction{
		Amount:      amount,
		Description: body.Get("description"),
		Date:        date,
		CategoryID:  body.Get("categoryId"),
		Type:        core.TransactionType(body.Get("type")),
	})
	if err != nil {
		s.fail(w, r, "create transaction", err)
		return
	}

	s.appMetrics.transactionsCreated.Add(1)
	s.events.LogTransactionCreated(r.Context(), tx.ID, string(tx.Type), tx.Amount.String(), tx.CategoryID)

	NewResponse().
		Status(http.StatusCreated).
		Version(s.ledger.Version()).
		JSON(tx).
		Write(w)
}

// PATCH /api/transactions/{id}
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(w, r)
	if err := body.Parse(); err != nil {
		s.fail(w, r, "update transaction", err)
		return
	}

	tx, err := s.ledger.UpdateDescription(r.Context(), r.PathValue("id"), body.Get("description"))
	if err != nil {
		s.fail(w, r, "update transaction", err)
		return
	}
	NewResponse().Version(s.ledger.Version()).JSON(tx).Write(w)
}

// DELETE /api/transactions/{id}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete transaction", err)
		return
	}
	s.appMetrics.deletions.Add(1)
	NewResponse().Status(http.StatusNoContent).Version(s.ledger.Version()).Write(w)
}
