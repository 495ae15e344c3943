package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ifthen/internal/app"
	apperrors "github.com/pscheid92/ifthen/internal/platform/errors"
)

const latestScenarioCount = 6

func (s *Server) registerPageRoutes(g *echo.Group, rateLimiter echo.MiddlewareFunc) {
	g.GET("/", s.handleIndex)
	g.GET("/all-scenarios", s.handleAllScenarios)
	g.GET("/explore", s.handleExplore)
	g.GET("/search", s.handleSearch)
	g.GET("/submit", s.handleSubmitForm)
	g.POST("/submit", s.handleSubmit, rateLimiter, s.uploadBodyLimit())
	g.GET("/discussion/:id", s.handleDiscussion)
	g.POST("/discussion/:id/comment", s.handleAddComment, rateLimiter)
	g.GET("/contact", s.handleContactForm)
	g.POST("/contact", s.handleContact, rateLimiter)
	g.GET("/about", s.handleAbout)
}

func (s *Server) handleIndex(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := s.app.LatestScenarios(ctx, latestScenarioCount)
	if err != nil {
		return apperrors.InternalError("failed to load scenarios", err)
	}

	return s.renderTemplate(c, "index.html", listPage{
		basePage:  newBasePage(c, "Home"),
		Scenarios: list.Scenarios,
		TagColors: list.TagColors,
		Votes:     s.app.ViewerVotes(ctx, viewerID(c)),
	})
}

func (s *Server) handleAllScenarios(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := s.app.ListScenarios(ctx)
	if err != nil {
		return apperrors.InternalError("failed to load scenarios", err)
	}

	return s.renderTemplate(c, "all-scenarios.html", listPage{
		basePage:  newBasePage(c, "What Ifs"),
		Scenarios: list.Scenarios,
		TagColors: list.TagColors,
		Votes:     s.app.ViewerVotes(ctx, viewerID(c)),
	})
}

func (s *Server) handleExplore(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := s.app.BrowseScenarios(ctx, tagsParam(c.QueryParams()["tags"]))
	if err != nil {
		return apperrors.InternalError("failed to load scenarios", err)
	}

	return s.renderTemplate(c, "explore.html", explorePage{
		listPage: listPage{
			basePage:  newBasePage(c, "Explore"),
			Scenarios: res.Scenarios,
			TagColors: res.TagColors,
			Votes:     s.app.ViewerVotes(ctx, viewerID(c)),
		},
		AvailableTags: res.AvailableTags,
		Selected:      res.Selected,
		NoResults:     res.NoResults,
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("query")

	res, err := s.app.SearchScenarios(ctx, query)
	if err != nil {
		return apperrors.InternalError("failed to search scenarios", err)
	}

	page := searchPage{
		basePage:  newBasePage(c, "Search"),
		Result:    res.SearchResult,
		TagColors: res.TagColors,
		Votes:     s.app.ViewerVotes(ctx, viewerID(c)),
	}
	page.Query = res.Query
	return s.renderTemplate(c, "search.html", page)
}

func (s *Server) handleSubmitForm(c echo.Context) error {
	return s.renderTemplate(c, "submit.html", submitPage{
		basePage:      newBasePage(c, "Create your What If"),
		AvailableTags: s.app.AvailableTags(c.Request().Context()),
	})
}

func (s *Server) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		return apperrors.ValidationError("invalid form data").WithCause(err)
	}

	req := app.SubmitScenarioRequest{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Tags:        tagsParam(form["tags"]),
	}

	file, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return apperrors.ValidationError("invalid image upload").WithCause(err)
	case file.Size > 0:
		f, err := file.Open()
		if err != nil {
			return apperrors.InternalError("failed to open upload", err)
		}
		defer func() { _ = f.Close() }()
		req.Image = &app.ImageUpload{Name: file.Filename, Reader: f}
	}

	scenario, err := s.app.SubmitScenario(ctx, req)
	if err != nil {
		return err
	}

	list, err := s.app.ListScenarios(ctx)
	if err != nil {
		return apperrors.InternalError("failed to load tag colors", err)
	}

	return s.renderTemplate(c, "submitted.html", submittedPage{
		basePage:  newBasePage(c, "Submitted"),
		Scenario:  *scenario,
		TagColors: list.TagColors,
	})
}

func (s *Server) handleDiscussion(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("scenario not found").WithField("id", c.Param("id"))
	}

	d, err := s.app.GetDiscussion(ctx, id)
	if err != nil {
		return err
	}

	return s.renderTemplate(c, "discussion.html", discussionPage{
		basePage:  newBasePage(c, d.Scenario.Title),
		Scenario:  *d.Scenario,
		Comments:  d.Comments,
		TagColors: d.TagColors,
		Votes:     s.app.ViewerVotes(ctx, viewerID(c)),
	})
}

func (s *Server) handleAddComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.NotFoundError("scenario not found").WithField("id", c.Param("id"))
	}

	if _, err := s.app.AddComment(c.Request().Context(), id, c.FormValue("comment")); err != nil {
		return err
	}

	if err := c.Redirect(http.StatusSeeOther, "/discussion/"+id.String()); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleContactForm(c echo.Context) error {
	return s.renderTemplate(c, "contact.html", newBasePage(c, "Contact Us"))
}

func (s *Server) handleContact(c echo.Context) error {
	msg, err := s.app.SubmitContact(c.Request().Context(), app.ContactRequest{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Phone:   c.FormValue("phone"),
		Message: c.FormValue("message"),
	})
	if err != nil {
		return err
	}

	return s.renderTemplate(c, "contact-success.html", contactSuccessPage{
		basePage: newBasePage(c, "Thank you"),
		Message:  msg,
	})
}

func (s *Server) handleAbout(c echo.Context) error {
	return s.renderTemplate(c, "about.html", newBasePage(c, "About"))
}

func (s *Server) renderErrorPage(c echo.Context, err *apperrors.Error) error {
	status := err.HTTPStatus()
	message := err.Message
	if status >= http.StatusInternalServerError {
		message = "Something went wrong on our side. Please try again later."
	}

	return s.renderTemplateStatus(c, status, "error.html", errorPage{
		basePage: newBasePage(c, http.StatusText(status)),
		Status:   status,
		Message:  message,
	})
}

// tagsParam accepts both repeated fields and comma separated values.
func tagsParam(values []string) []string {
	var tags []string
	for _, v := range values {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return tags
}
