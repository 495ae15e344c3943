package voting

import "github.com/pscheid92/ifthen/internal/domain"

const (
	iconUp          = "bi-hand-thumbs-up"
	iconUpActive    = "bi-hand-thumbs-up-fill"
	iconDown        = "bi-hand-thumbs-down"
	iconDownActive  = "bi-hand-thumbs-down-fill"
	classUpActive   = "text-success"
	classDownActive = "text-danger"
)

// Button is the rendered state of one vote button.
type Button struct {
	Direction string `json:"direction"`
	Active    bool   `json:"active"`
	Icon      string `json:"icon"`
	Class     string `json:"class"`
}

// ButtonsView is the rendered state of both vote buttons of a scenario.
type ButtonsView struct {
	Up   Button `json:"up"`
	Down Button `json:"down"`
}

// Buttons derives the button view from the vote state alone.
func Buttons(state domain.VoteState) ButtonsView {
	v := ButtonsView{
		Up:   Button{Direction: domain.VoteUp.String(), Icon: iconUp},
		Down: Button{Direction: domain.VoteDown.String(), Icon: iconDown},
	}
	switch state {
	case domain.VotedUp:
		v.Up = Button{Direction: v.Up.Direction, Active: true, Icon: iconUpActive, Class: classUpActive}
	case domain.VotedDown:
		v.Down = Button{Direction: v.Down.Direction, Active: true, Icon: iconDownActive, Class: classDownActive}
	}
	return v
}
