package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ifthen/internal/domain"
	apperrors "github.com/pscheid92/ifthen/internal/platform/errors"
)

func (s *Server) registerAPIRoutes(g *echo.Group, rateLimiter echo.MiddlewareFunc) {
	g.GET("/api/scenarios", s.handleAPIScenarios)
	g.GET("/api/search", s.handleAPISearch)
	g.POST("/api/scenarios/:id/vote", s.handleVote, rateLimiter)
}

func (s *Server) handleAPIScenarios(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := s.app.BrowseScenarios(ctx, tagsParam(c.QueryParams()["tags"]))
	if err != nil {
		return apperrors.InternalError("failed to load scenarios", err)
	}

	votes := s.app.ViewerVotes(ctx, viewerID(c))
	out := scenarioListJSON{
		Scenarios:   make([]scenarioJSON, len(res.Scenarios)),
		TagColorMap: res.TagColors,
		NoResults:   res.NoResults,
	}
	for i, sc := range res.Scenarios {
		out.Scenarios[i] = toScenarioJSON(sc, votes[sc.ID])
	}

	if err := c.JSON(http.StatusOK, out); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAPISearch(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := s.app.SearchScenarios(ctx, c.QueryParam("query"))
	if err != nil {
		return apperrors.InternalError("failed to search scenarios", err)
	}

	votes := s.app.ViewerVotes(ctx, viewerID(c))
	out := searchJSON{
		Query:       res.Query,
		Active:      res.Active,
		NoMatches:   res.NoMatches,
		Results:     make([]searchMatchJSON, len(res.Matches)),
		TagColorMap: res.TagColors,
	}
	for i, m := range res.Matches {
		tags := make([]highlightedJSON, len(m.Tags))
		for j, t := range m.Tags {
			tags[j] = toHighlightedJSON(t)
		}
		out.Results[i] = searchMatchJSON{
			Scenario:    toScenarioJSON(m.Scenario, votes[m.Scenario.ID]),
			Title:       toHighlightedJSON(m.Title),
			Description: toHighlightedJSON(m.Description),
			Tags:        tags,
		}
	}

	if err := c.JSON(http.StatusOK, out); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type voteRequest struct {
	Direction string `json:"direction" form:"direction"`
}

func (s *Server) handleVote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid scenario ID").WithField("id", c.Param("id"))
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	dir, err := domain.ParseVoteDirection(req.Direction)
	if err != nil {
		return apperrors.ValidationError("direction must be up or down").WithField("direction", req.Direction)
	}

	res, err := s.app.CastVote(c.Request().Context(), viewerID(c), id, dir)
	if err != nil {
		return err
	}

	out := voteJSON{
		Upvotes:   res.Counts.Upvotes,
		Downvotes: res.Counts.Downvotes,
		State:     res.State.String(),
		Buttons:   res.Buttons,
	}
	if err := c.JSON(http.StatusOK, out); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
