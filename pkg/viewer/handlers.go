package viewer

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	http "github.com/valyala/fasthttp"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/cocopdf"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index  *template.Template
	sample *template.Template
}

func parseTemplates() (*pages, error) {
	funcs := template.FuncMap{
		"color": func(id int) string { return coco.HexColor(coco.CategoryColor(id)) },
		"num":   func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}
	index, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing index template: %w", err)
	}
	sample, err := template.New("sample.html").Funcs(funcs).ParseFS(templateFS, "templates/sample.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing sample template: %w", err)
	}
	return &pages{index: index, sample: sample}, nil
}

type indexPage struct {
	Title      string
	SessionID  string
	Total      int
	Samples    []sampleRow
	Categories []CategoryCount
}

type sampleRow struct {
	coco.Image
	Annotations int
}

type samplePage struct {
	Title       string
	SessionID   string
	Image       coco.Image
	Annotations []annotationRow
	Prev, Next  int
}

type annotationRow struct {
	coco.Annotation
	Category string
}

// Sample is one image of the view with its annotations, as served by
// /api/samples.
type Sample struct {
	Image       coco.Image        `json:"image"`
	Annotations []coco.Annotation `json:"annotations"`
}

// Handler routes a request to the session's pages
func (s *Session) Handler(ctx *http.RequestCtx) {
	path := string(ctx.Path())
	s.logger.Debug("request", "method", string(ctx.Method()), "path", path)

	switch {
	case path == "/":
		s.handleIndex(ctx)
	case path == "/api/samples":
		s.handleSamples(ctx)
	case path == "/export.pdf":
		s.handleExport(ctx)
	case path == "/close":
		s.handleClose(ctx)
	case strings.HasPrefix(path, "/sample/"):
		s.withImage(ctx, strings.TrimPrefix(path, "/sample/"), s.handleSample)
	case strings.HasPrefix(path, "/render/") && strings.HasSuffix(path, ".png"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/render/"), ".png")
		s.withImage(ctx, id, s.handleRender)
	case strings.HasPrefix(path, "/image/"):
		s.withImage(ctx, strings.TrimPrefix(path, "/image/"), s.handleImage)
	default:
		ctx.NotFound()
	}
}

// withImage resolves an image id of the view and calls next with it
func (s *Session) withImage(ctx *http.RequestCtx, rawID string, next func(*http.RequestCtx, coco.Image)) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		ctx.Error("invalid image id", http.StatusBadRequest)
		return
	}
	img, ok := s.dataset.Index().Image(id)
	if !ok || !s.inView[id] {
		ctx.NotFound()
		return
	}
	next(ctx, *img)
}

func (s *Session) handleIndex(ctx *http.RequestCtx) {
	idx := s.dataset.Index()
	data := indexPage{
		Title:      s.opts.Title,
		SessionID:  s.ID,
		Total:      s.dataset.Len(),
		Samples:    make([]sampleRow, len(s.view)),
		Categories: s.Summary(),
	}
	for i, img := range s.view {
		data.Samples[i] = sampleRow{Image: img, Annotations: len(idx.Annotations(img.ID))}
	}
	s.writeHTML(ctx, s.pages.index, data)
}

func (s *Session) handleSample(ctx *http.RequestCtx, img coco.Image) {
	idx := s.dataset.Index()
	data := samplePage{
		Title:     s.opts.Title,
		SessionID: s.ID,
		Image:     img,
	}
	for _, ann := range idx.Annotations(img.ID) {
		data.Annotations = append(data.Annotations, annotationRow{Annotation: *ann, Category: idx.CategoryName(ann.CategoryID)})
	}
	for i, v := range s.view {
		if v.ID != img.ID {
			continue
		}
		if i > 0 {
			data.Prev = s.view[i-1].ID
		}
		if i+1 < len(s.view) {
			data.Next = s.view[i+1].ID
		}
		break
	}
	s.writeHTML(ctx, s.pages.sample, data)
}

func (s *Session) handleRender(ctx *http.RequestCtx, img coco.Image) {
	data, err := s.dataset.ReadImage(img)
	if err != nil {
		s.logger.Error("failed to read image", "image_id", img.ID, "error", err)
		ctx.Error("image unavailable", http.StatusNotFound)
		return
	}

	var anns []*coco.Annotation
	if string(ctx.QueryArgs().Peek("boxes")) != "false" {
		anns = s.dataset.Index().Annotations(img.ID)
	}
	var buf bytes.Buffer
	if err := RenderPNG(&buf, data, anns, s.opts.LineWidth); err != nil {
		s.logger.Error("failed to render image", "image_id", img.ID, "error", err)
		ctx.Error("render failed", http.StatusInternalServerError)
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetBody(buf.Bytes())
}

func (s *Session) handleImage(ctx *http.RequestCtx, img coco.Image) {
	data, err := s.dataset.ReadImage(img)
	if err != nil {
		s.logger.Error("failed to read image", "image_id", img.ID, "error", err)
		ctx.Error("image unavailable", http.StatusNotFound)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(img.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.SetContentType(contentType)
	ctx.SetBody(data)
}

func (s *Session) handleSamples(ctx *http.RequestCtx) {
	idx := s.dataset.Index()
	out := struct {
		Session    string          `json:"session"`
		Total      int             `json:"total"`
		Categories []CategoryCount `json:"categories"`
		Samples    []Sample        `json:"samples"`
	}{
		Session:    s.ID,
		Total:      s.dataset.Len(),
		Categories: s.Summary(),
		Samples:    make([]Sample, len(s.view)),
	}
	for i, img := range s.view {
		sample := Sample{Image: img, Annotations: []coco.Annotation{}}
		for _, ann := range idx.Annotations(img.ID) {
			sample.Annotations = append(sample.Annotations, *ann)
		}
		out.Samples[i] = sample
	}

	body, err := json.Marshal(out)
	if err != nil {
		ctx.Error(err.Error(), http.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func (s *Session) handleExport(ctx *http.RequestCtx) {
	pdfPages, err := s.dataset.Pages(s.view)
	if err != nil {
		s.logger.Error("failed to load view", "error", err)
		ctx.Error("failed to load images", http.StatusInternalServerError)
		return
	}
	cfg := s.opts.PDF
	cfg.Logger = s.logger
	data, err := cocopdf.Export(pdfPages, s.dataset.Doc.Categories, cfg)
	if err != nil {
		s.logger.Error("failed to export review sheet", "error", err)
		ctx.Error("export failed", http.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/pdf")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="review.pdf"`)
	ctx.SetBody(data)
}

func (s *Session) handleClose(ctx *http.RequestCtx) {
	if !ctx.IsPost() && !ctx.IsGet() {
		ctx.Error("method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.logger.Info("close requested", "remote", ctx.RemoteAddr().String())
	ctx.SetConnectionClose()
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString("session closed\n")
	go s.Close()
}

func (s *Session) writeHTML(ctx *http.RequestCtx, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render page", "template", tmpl.Name(), "error", err)
		ctx.Error("failed to render page", http.StatusInternalServerError)
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}
