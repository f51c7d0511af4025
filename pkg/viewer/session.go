package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	http "github.com/valyala/fasthttp"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/cocopdf"
)

const shutdownTimeout = 5 * time.Second

// ErrNotLaunched is returned by Wait on a session that was never launched
var ErrNotLaunched = errors.New("session not launched")

// Options configures a viewer session
type Options struct {
	Addr      string         // Listen address, e.g. 127.0.0.1:5151
	Title     string         // Page title
	LineWidth float64        // Box stroke width in pixels
	PDF       cocopdf.Config // Review sheet export settings
	Logger    *slog.Logger   // Nil disables logging

	// Listener replaces listening on Addr when set
	Listener net.Listener
}

// DefaultOptions returns the options used by cocoview
func DefaultOptions() Options {
	return Options{
		Addr:      "127.0.0.1:5151",
		Title:     "laydoc",
		LineWidth: 3,
		PDF:       cocopdf.DefaultConfig(),
	}
}

// Session serves one sampled view of a dataset until it is closed
type Session struct {
	ID string

	dataset *Dataset
	view    []coco.Image
	inView  map[int]bool
	opts    Options
	logger  *slog.Logger
	pages   *pages

	mu       sync.Mutex
	server   *http.Server
	ln       net.Listener
	addr     string
	closing  chan struct{}
	done     chan struct{}
	serveErr error

	closeOnce sync.Once
	closeErr  error
}

// NewSession prepares a session over view, a subset of the dataset images
func NewSession(ds *Dataset, view []coco.Image, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	inView := make(map[int]bool, len(view))
	for _, img := range view {
		inView[img.ID] = true
	}

	id := uuid.NewString()
	return &Session{
		ID:      id,
		dataset: ds,
		view:    view,
		inView:  inView,
		opts:    opts,
		logger:  opts.Logger.With("session", id),
		pages:   tmpl,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Launch starts serving in the background. The session closes when ctx is
// cancelled, when a client requests /close, or when Close is called.
func (s *Session) Launch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return fmt.Errorf("session %s already launched", s.ID)
	}

	ln := s.opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.opts.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
		}
	}
	s.ln = ln
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler: s.Handler,
		Name:    "laydoc",
		Logger:  serverLogger{s.logger},
	}

	go func() {
		err := s.server.Serve(ln)
		select {
		case <-s.closing:
			err = nil
		default:
		}
		s.mu.Lock()
		s.serveErr = err
		s.mu.Unlock()
		close(s.done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, closing session")
			s.Close()
		case <-s.done:
		}
	}()

	s.logger.Info("session launched", "url", s.urlLocked(), "samples", len(s.view))
	return nil
}

// Wait blocks until the session has shut down
func (s *Session) Wait() error {
	s.mu.Lock()
	launched := s.server != nil
	s.mu.Unlock()
	if !launched {
		return ErrNotLaunched
	}

	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}

// Close stops the server, waiting up to a few seconds for open requests
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)

		s.mu.Lock()
		srv, ln := s.server, s.ln
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.ShutdownWithContext(ctx); err != nil {
			s.closeErr = fmt.Errorf("shutdown: %w", err)
		}
		ln.Close()
		s.logger.Info("session closed")
	})
	return s.closeErr
}

// URL returns the address clients should open
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlLocked()
}

func (s *Session) urlLocked() string {
	addr := s.addr
	if addr == "" {
		addr = s.opts.Addr
	}
	return "http://" + addr + "/"
}

// Summary lists the annotation count of every category in the view,
// ordered by category id.
func (s *Session) Summary() []CategoryCount {
	idx := s.dataset.Index()
	counts := idx.CategoryCounts(s.view)
	out := make([]CategoryCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, CategoryCount{
			ID:    id,
			Name:  idx.CategoryName(id),
			Color: coco.HexColor(coco.CategoryColor(id)),
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CategoryCount is one row of the view summary
type CategoryCount struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// serverLogger routes fasthttp's internal messages to slog
type serverLogger struct {
	logger *slog.Logger
}

func (l serverLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "fasthttp")
}
