// Package render turns todo values into the HTML fragments htmx swaps into
// the page. Every function is pure: the output depends only on the
// arguments. All text is escaped by html/template.
package render

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/roach88/todox/internal/todo"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var fragments = template.Must(template.New("fragments").ParseFS(templateFS, "templates/*.tmpl"))

// view is the data shared by the list and body templates.
type view struct {
	HideDone  bool
	Items     []todo.Item
	MaxLength int
}

// Item writes the fragment for one item: its text styled by done, a form
// that PATCHes /todo/{id}, and a delete button.
func Item(w io.Writer, it todo.Item) error {
	return fragments.ExecuteTemplate(w, "item", it)
}

// List writes one item fragment per visible item, in the given order.
func List(w io.Writer, items []todo.Item, hideDone bool) error {
	return fragments.ExecuteTemplate(w, "list", view{HideDone: hideDone, Items: items})
}

// ToggleButton writes the "Hide completed" control. Its background encodes
// the current flag.
func ToggleButton(w io.Writer, hideDone bool) error {
	return fragments.ExecuteTemplate(w, "toggle", hideDone)
}

// Body writes the full page body: controls, the add form and the list
// region (pre-filled with items).
func Body(w io.Writer, hideDone bool, items []todo.Item) error {
	return fragments.ExecuteTemplate(w, "body", view{
		HideDone:  hideDone,
		Items:     items,
		MaxLength: todo.MaxTextLength,
	})
}

// String renders with fn into a string. Convenience for tests and the CLI.
func String(fn func(io.Writer) error) (string, error) {
	var sb strings.Builder
	if err := fn(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
