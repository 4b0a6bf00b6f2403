// pkg/api/visits.go
package api

import (
	"net/http"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/report"
	"github.com/David-Botos/datawizard/pkg/session"
)

// VisitsResponse carries the visit count after this visit
type VisitsResponse struct {
	Visits   int      `json:"visits"`
	Warnings []string `json:"warnings,omitempty"`
}

// AnalyticsResponse is the usage snapshot plus the caller's own trail
type AnalyticsResponse struct {
	SessionID string             `json:"session_id"`
	Visits    int                `json:"visits"`
	Summary   analytics.Summary  `json:"summary"`
	Trail     []analytics.Action `json:"trail"`
	Warnings  []string           `json:"warnings,omitempty"`
}

func (s *Server) visits(w http.ResponseWriter, r *http.Request) {
	handler := report.NewHandler(s.logger)
	n := s.counter.Hit(r.Context(), handler)
	s.metrics.RecordErrors(handler.Records())

	respond(w, r, SuccessResponse("Visits", &VisitsResponse{
		Visits:   n,
		Warnings: handler.Warnings(),
	}))
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	id, _ := s.withSession(w, r, func(*session.State) error { return nil })

	handler := report.NewHandler(s.logger)
	visits, err := s.counter.Current(r.Context())
	if err != nil {
		handler.HandleError(report.NewErrorRecord(err, report.ErrorCategoryExternalResource).WithSource("visits"))
	}
	s.metrics.RecordErrors(handler.Records())

	respond(w, r, SuccessResponse("Analytics", &AnalyticsResponse{
		SessionID: id,
		Visits:    visits,
		Summary:   s.metrics.Summary(),
		Trail:     s.metrics.Trail(id),
		Warnings:  handler.Warnings(),
	}))
}
