// pkg/api/projects.go
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/catalog"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/session"
)

// ProjectsResponse is the catalog page of one session
type ProjectsResponse struct {
	SessionID string `json:"session_id"`
	catalog.Page
	Warnings []string `json:"warnings,omitempty"`
}

// OptionsResponse lists the values the search form offers
type OptionsResponse struct {
	Domains      []string           `json:"domains"`
	Technologies []string           `json:"technologies"`
	Difficulties []model.Difficulty `json:"difficulties"`
}

// browse runs fn on the session's browsing state and replies with the resulting page
func (s *Server) browse(w http.ResponseWriter, r *http.Request, msg string, fn func(*session.State) error) {
	var page catalog.Page
	id, err := s.withSession(w, r, func(state *session.State) error {
		if err := fn(state); err != nil {
			return err
		}
		page = state.Browse.Page(s.catalog)
		return nil
	})
	if err != nil {
		respond(w, r, NotFoundResponse(err.Error()))
		return
	}

	respond(w, r, SuccessResponse(msg, &ProjectsResponse{
		SessionID: id,
		Page:      page,
		Warnings:  s.catalogWarnings,
	}))
}

func (s *Server) currentPage(w http.ResponseWriter, r *http.Request) {
	s.browse(w, r, "Projects", func(*session.State) error { return nil })
}

func (s *Server) projectOptions(w http.ResponseWriter, r *http.Request) {
	var levels []model.Difficulty
	for d := model.MinDifficulty; d <= model.MaxDifficulty; d++ {
		levels = append(levels, d)
	}
	respond(w, r, SuccessResponse("Search options", &OptionsResponse{
		Domains:      s.catalog.Domains(),
		Technologies: s.catalog.Technologies(),
		Difficulties: levels,
	}))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	criteria := catalog.DefaultCriteria()
	if err := render.DecodeJSON(r.Body, &criteria); err != nil {
		respond(w, r, BadRequestResponse(fmt.Sprintf("invalid search criteria: %v", err)))
		return
	}

	s.browse(w, r, "Search results", func(state *session.State) error {
		state.Browse.Search(criteria)
		s.metrics.TrackAction(state.ID, analytics.ActionSearch)
		return nil
	})
}

func (s *Server) loadMore(w http.ResponseWriter, r *http.Request) {
	s.browse(w, r, "More projects", func(state *session.State) error {
		state.Browse.LoadMore()
		return nil
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.browse(w, r, "Search reset", func(state *session.State) error {
		state.Browse.Reset()
		return nil
	})
}

func (s *Server) openDetail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respond(w, r, BadRequestResponse("project index must be an integer"))
		return
	}

	s.browse(w, r, "Project details", func(state *session.State) error {
		if _, err := state.Browse.OpenDetail(s.catalog, index); err != nil {
			return err
		}
		s.metrics.TrackAction(state.ID, analytics.ActionDetailOpened)
		return nil
	})
}

func (s *Server) closeDetail(w http.ResponseWriter, r *http.Request) {
	s.browse(w, r, "Back to projects", func(state *session.State) error {
		state.Browse.CloseDetail()
		return nil
	})
}
