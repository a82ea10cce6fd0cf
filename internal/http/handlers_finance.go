package http

import (
	"net/http"

	"finsight/internal/core"
	"finsight/internal/services"
)

type financialPage struct {
	services.Snapshot
	Error string
}

func (s *Server) handleFinancialPage(w http.ResponseWriter, r *http.Request) {
	s.renderFinancial(w, r, http.StatusOK, "")
}

func (s *Server) renderFinancial(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	snapshot := s.finance.Snapshot(requestUserID(r))
	s.render(w, r, status, "financial.html", financialPage{Snapshot: snapshot, Error: errMsg})
}

// finishMutation renders the page with a 422 on a rejected mutation, or
// redirects back so a refresh never resubmits the form.
func (s *Server) finishMutation(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	http.Redirect(w, r, "/financial", http.StatusSeeOther)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	income, err := parseAmountField(r, "monthlyIncome")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	goal, err := parseAmountField(r, "goalAmount")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	savings, err := parseAmountField(r, "currentSavings")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile := core.Profile{MonthlyIncome: income, GoalAmount: goal, CurrentSavings: savings}
	s.finishMutation(w, r, s.finance.UpdateProfile(r.Context(), requestUserID(r), profile))
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmountField(r, "amount")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	expense := core.Expense{
		Category: sanitizeInput(r.FormValue("category")),
		Amount:   amount,
	}
	s.finishMutation(w, r, s.finance.AddExpense(r.Context(), requestUserID(r), expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndexField(r, "index")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.finishMutation(w, r, s.finance.DeleteExpense(r.Context(), requestUserID(r), index))
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmountField(r, "amount")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	bill := core.Bill{
		Description: sanitizeInput(r.FormValue("description")),
		Amount:      amount,
		DueDate:     sanitizeInput(r.FormValue("dueDate")),
	}
	s.finishMutation(w, r, s.finance.AddBill(r.Context(), requestUserID(r), bill))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndexField(r, "index")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.finishMutation(w, r, s.finance.DeleteBill(r.Context(), requestUserID(r), index))
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmountField(r, "targetAmount")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	goal := core.Goal{
		Description:  sanitizeInput(r.FormValue("description")),
		TargetAmount: amount,
		TargetDate:   sanitizeInput(r.FormValue("targetDate")),
	}
	s.finishMutation(w, r, s.finance.AddGoal(r.Context(), requestUserID(r), goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndexField(r, "index")
	if err != nil {
		s.renderFinancial(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.finishMutation(w, r, s.finance.DeleteGoal(r.Context(), requestUserID(r), index))
}
