package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type boardTemplates struct {
	board *template.Template
}

type boardData struct {
	Playing  bool
	Progress game.Progress
}

// parseBoardTemplates parses the embedded templates once at startup. The placeholder funcs are replaced per request.
func parseBoardTemplates() (*boardTemplates, error) {
	t, err := template.New("board").Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr { return "" },
		"csrf":  func() template.HTML { return "" },
	}).ParseFS(templateFS, "templates/board.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parse board template")
	}
	return &boardTemplates{board: t}, nil
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, data boardData) {
	t, err := app.templates.board.Clone()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "clone template"))
		return
	}

	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))
	csrf := fmt.Sprintf(`<input type="hidden" name="csrf_token" value=%q/>`, contexthelpers.CSRFToken(ctx))
	t.Funcs(template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // the nonce is not provided by the user.
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // the token is not provided by the user.
		},
	})

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("template", "board")))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
