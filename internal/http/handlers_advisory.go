package http

import (
	"net/http"

	"finsight/internal/advisor"
	applog "finsight/internal/log"
)

type advisoryPage struct {
	Available bool
	Advice    string
	Error     string
}

func (s *Server) handleAdvisoryPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "advisory.html", advisoryPage{Available: s.generator != nil})
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.render(w, r, http.StatusServiceUnavailable, "advisory.html", advisoryPage{
			Error: "advisory is not configured on this server",
		})
		return
	}

	snapshot := s.finance.Snapshot(requestUserID(r))
	prompt := advisor.BuildAdvisoryPrompt(snapshot.State)

	// Tied to the request context: a client that navigates away cancels
	// the in-flight call.
	advice, err := s.generator.Generate(r.Context(), prompt)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "advisory generation failed",
			applog.FieldOperation, applog.OpGenerate,
			applog.FieldUserID, requestUserID(r),
			applog.FieldError, err.Error())
		s.render(w, r, http.StatusBadGateway, "advisory.html", advisoryPage{
			Available: true,
			Error:     "could not generate advice right now, please try again",
		})
		return
	}

	s.render(w, r, http.StatusOK, "advisory.html", advisoryPage{Available: true, Advice: advice})
}
