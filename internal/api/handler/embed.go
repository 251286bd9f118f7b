package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/usecase"
)

// embedTemplate is the minimal OpenGraph document link unfurlers need to
// render an inline player. Everything past the meta tags is a courtesy for
// humans who open the page directly.
var embedTemplate = template.Must(template.New("embed").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.DisplayName}}</title>
<meta property="og:title" content="{{.DisplayName}}">
<meta property="og:type" content="video.other">
{{- if .ThumbnailURL}}
<meta property="og:image" content="{{.ThumbnailURL}}">
{{- end}}
<meta property="og:video" content="{{.PlayURL}}">
<meta property="og:video:secure_url" content="{{.PlayURL}}">
<meta property="og:video:type" content="video/mp4">
<meta property="og:video:width" content="{{.Width}}">
<meta property="og:video:height" content="{{.Height}}">
<meta name="twitter:card" content="player">
<meta name="twitter:player:stream" content="{{.PlayURL}}">
</head>
<body>
<video controls playsinline width="{{.Width}}" height="{{.Height}}"{{if .ThumbnailURL}} poster="{{.ThumbnailURL}}"{{end}}>
<source src="{{.PlayURL}}" type="video/mp4">
</video>
</body>
</html>
`))

type embedData struct {
	DisplayName  string
	ThumbnailURL string
	PlayURL      string
	Width        int
	Height       int
}

// EmbedHandler serves the OpenGraph page unfurlers fetch when a short link
// is posted somewhere.
type EmbedHandler struct {
	svc           usecase.LinkService
	logger        *slog.Logger
	publicBaseURL string
}

// NewEmbedHandler creates a new EmbedHandler.
func NewEmbedHandler(svc usecase.LinkService, logger *slog.Logger, publicBaseURL string) *EmbedHandler {
	return &EmbedHandler{
		svc:           svc,
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Get handles GET /v/{id}
func (h *EmbedHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			http.Error(w, "link not found or expired", http.StatusNotFound)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// An unfurl is the strongest signal that playback is imminent.
	h.svc.WarmLink(link)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := embedTemplate.Execute(w, h.toEmbedData(link)); err != nil {
		h.logger.Warn("render embed page",
			slog.String("link_id", link.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (h *EmbedHandler) toEmbedData(l *model.Link) embedData {
	return embedData{
		DisplayName:  l.DisplayName,
		ThumbnailURL: l.ThumbnailURL,
		PlayURL:      fmt.Sprintf("%s/play/%s/%s", h.publicBaseURL, l.ID, playbackFileName(l.DisplayName)),
		Width:        l.Width,
		Height:       l.Height,
	}
}

// playbackFileName reduces a display name to a safe URL path segment. The
// segment is cosmetic; playback resolves by id alone, but embedding
// clients sniff the media type from the path.
func playbackFileName(displayName string) string {
	var b strings.Builder
	for _, r := range displayName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}

	name := strings.Trim(b.String(), "._")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		return "video.mp4"
	}
	if !strings.Contains(name, ".") {
		name += ".mp4"
	}
	return name
}
