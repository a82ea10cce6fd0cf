package http

import (
	"net/http"

	"finsight/internal/advisor"
	applog "finsight/internal/log"
	"finsight/internal/risk"
)

type fraudPage struct {
	Form     risk.Transaction
	Assessed bool
	Score    int
	Level    risk.Level
	Feedback string
	Error    string
}

func (s *Server) handleFraudPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "fraud.html", fraudPage{
		Form: risk.Transaction{CardUsageFrequency: "Low"},
	})
}

func (s *Server) handleFraud(w http.ResponseWriter, r *http.Request) {
	txn := risk.Transaction{
		Location:           sanitizeInput(r.FormValue("location")),
		DeviceType:         sanitizeInput(r.FormValue("deviceType")),
		Timestamp:          sanitizeInput(r.FormValue("timestamp")),
		IPAddress:          sanitizeInput(r.FormValue("ipAddress")),
		CardUsageFrequency: sanitizeInput(r.FormValue("cardUsageFrequency")),
	}

	amount, err := parseAmountField(r, "amount")
	if err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "fraud.html", fraudPage{
			Form:  txn,
			Error: err.Error(),
		})
		return
	}
	txn.Amount = amount

	// The heuristic score always computes, with or without a generator.
	score, level := risk.Assess(txn)

	page := fraudPage{Form: txn, Assessed: true, Score: score, Level: level}
	if s.generator != nil {
		feedback, err := s.generator.Generate(r.Context(), advisor.BuildFraudPrompt(txn))
		if err != nil {
			s.logger.ErrorContext(r.Context(), "fraud analysis generation failed",
				applog.FieldOperation, applog.OpGenerate,
				applog.FieldUserID, requestUserID(r),
				applog.FieldError, err.Error())
			page.Error = "could not generate the detailed analysis right now"
		} else {
			page.Feedback = feedback
		}
	}

	s.render(w, r, http.StatusOK, "fraud.html", page)
}
