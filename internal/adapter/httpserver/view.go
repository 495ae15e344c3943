package httpserver

import (
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/filter"
	"github.com/pscheid92/ifthen/internal/voting"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"tagColor": func(colors domain.TagColors, name string) string {
			return colors.ColorFor(name)
		},
		"buttons": func(states map[uuid.UUID]domain.VoteState, id uuid.UUID) voting.ButtonsView {
			return voting.Buttons(states[id])
		},
		"highlight": func(spans filter.Spans) template.HTML {
			return spans.HTML()
		},
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"card": func(s domain.Scenario, colors domain.TagColors, votes map[uuid.UUID]domain.VoteState) cardView {
			return cardView{Scenario: s, Colors: colors, Votes: votes}
		},
		"tagList": func(tags []string, colors domain.TagColors) tagsView {
			return tagsView{Tags: tags, Colors: colors}
		},
		"selected": func(selected []string, tag string) bool {
			for _, s := range selected {
				if strings.EqualFold(s, tag) {
					return true
				}
			}
			return false
		},
	}
}

type cardView struct {
	Scenario domain.Scenario
	Colors   domain.TagColors
	Votes    map[uuid.UUID]domain.VoteState
}

type tagsView struct {
	Tags   []string
	Colors domain.TagColors
}

// basePage carries what the layout partials need on every page.
type basePage struct {
	PageTitle string
	CSRFToken string
	Query     string
}

func newBasePage(c echo.Context, title string) basePage {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return basePage{PageTitle: title, CSRFToken: token}
}

type listPage struct {
	basePage
	Scenarios []domain.Scenario
	TagColors domain.TagColors
	Votes     map[uuid.UUID]domain.VoteState
}

type explorePage struct {
	listPage
	AvailableTags []string
	Selected      []string
	NoResults     bool
}

type searchPage struct {
	basePage
	Result    filter.SearchResult
	TagColors domain.TagColors
	Votes     map[uuid.UUID]domain.VoteState
}

type submitPage struct {
	basePage
	AvailableTags []string
}

type submittedPage struct {
	basePage
	Scenario  domain.Scenario
	TagColors domain.TagColors
}

type discussionPage struct {
	basePage
	Scenario  domain.Scenario
	Comments  []domain.Comment
	TagColors domain.TagColors
	Votes     map[uuid.UUID]domain.VoteState
}

type contactSuccessPage struct {
	basePage
	Message *domain.ContactMessage
}

type errorPage struct {
	basePage
	Status  int
	Message string
}

// --- JSON views ---

type scenarioJSON struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Author      string             `json:"author"`
	Tags        []string           `json:"tags"`
	Upvotes     int                `json:"upvotes"`
	Downvotes   int                `json:"downvotes"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UserVoted   string             `json:"userVoted"`
	Buttons     voting.ButtonsView `json:"buttons"`
}

func toScenarioJSON(s domain.Scenario, state domain.VoteState) scenarioJSON {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return scenarioJSON{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Author:      s.Author,
		Tags:        tags,
		Upvotes:     s.Upvotes,
		Downvotes:   s.Downvotes,
		ImageURL:    s.ImageURL,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UserVoted:   state.String(),
		Buttons:     voting.Buttons(state),
	}
}

type scenarioListJSON struct {
	Scenarios   []scenarioJSON   `json:"scenarios"`
	TagColorMap domain.TagColors `json:"tagColorMap"`
	NoResults   bool             `json:"noResults"`
}

type highlightedJSON struct {
	Spans filter.Spans  `json:"spans"`
	HTML  template.HTML `json:"html"`
}

func toHighlightedJSON(spans filter.Spans) highlightedJSON {
	if spans == nil {
		spans = filter.Spans{}
	}
	return highlightedJSON{Spans: spans, HTML: spans.HTML()}
}

type searchMatchJSON struct {
	Scenario    scenarioJSON      `json:"scenario"`
	Title       highlightedJSON   `json:"title"`
	Description highlightedJSON   `json:"description"`
	Tags        []highlightedJSON `json:"tags"`
}

type searchJSON struct {
	Query       string            `json:"query"`
	Active      bool              `json:"active"`
	NoMatches   bool              `json:"noMatches"`
	Results     []searchMatchJSON `json:"results"`
	TagColorMap domain.TagColors  `json:"tagColorMap"`
}

type voteJSON struct {
	Upvotes   int                `json:"upvotes"`
	Downvotes int                `json:"downvotes"`
	State     string             `json:"state"`
	Buttons   voting.ButtonsView `json:"buttons"`
}
