package render

import (
	"io"
	"strconv"

	"github.com/kapu/superhero-cards-go/internal/domain"
)

const defaultTitle = "Superhero Stats"

// PageView is the data behind a full page.
type PageView struct {
	Title       string
	Heroes      []domain.Hero
	LiveUpdates bool
	LiveURL     string
}

// Renderer projects a hero collection into HTML. It holds no state besides
// the page title and never triggers fetches.
type Renderer struct {
	title string
}

func NewRenderer(title string) *Renderer {
	if title == "" {
		title = defaultTitle
	}
	return &Renderer{title: title}
}

// RenderCards renders the card container fragment in collection order.
func (r *Renderer) RenderCards(heroes []domain.Hero) (string, error) {
	return executeTemplateString("cards", heroes)
}

func (r *Renderer) RenderPage(w io.Writer, view PageView) error {
	if view.Title == "" {
		view.Title = r.title
	}
	if view.LiveUpdates && view.LiveURL == "" {
		view.LiveURL = "/ws"
	}
	return executeTemplate(w, "page", view)
}

// percentWidth maps a stat straight to a CSS width. Values outside 0-100 are
// kept as-is.
func percentWidth(v int) string {
	return strconv.Itoa(v) + "%"
}
