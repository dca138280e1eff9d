// Package server serves the web chat page. Assistant replies stream to
// every open page over a websocket as the transcript changes.
package server

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
	"github.com/diogo/samarth/internal/render"
	"github.com/diogo/samarth/internal/transcript"
)

//go:embed assets
var assets embed.FS

const shutdownTimeout = 30 * time.Second

// Options configures a Server
type Options struct {
	Addr      string
	ModelName string
	Policy    render.HTMLPolicy
	Logger    *zerolog.Logger
}

// Server wires the transcript store to HTTP and websocket clients
type Server struct {
	echo     *echo.Echo
	store    *transcript.Store
	hub      *Hub
	renderer *render.HTMLRenderer
	upgrader websocket.Upgrader
	addr     string
	model    string
	logger   zerolog.Logger

	baseCtx     context.Context
	turns       sync.WaitGroup
	unsubscribe func()
}

// messageView is a message as the page sees it
type messageView struct {
	ID        string        `json:"id"`
	Role      models.Role   `json:"role"`
	Content   string        `json:"content"`
	HTML      template.HTML `json:"html,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Pending   bool          `json:"pending"`
}

// eventPayload is pushed over the websocket
type eventPayload struct {
	Type     string        `json:"type"`
	Index    int           `json:"index"`
	Message  *messageView  `json:"message,omitempty"`
	Messages []messageView `json:"messages,omitempty"`
	Busy     bool          `json:"busy"`
}

type messagesResponse struct {
	Messages []messageView `json:"messages"`
	Busy     bool          `json:"busy"`
}

type submitRequest struct {
	Content string `json:"content" form:"content"`
}

type submitResponse struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pageData struct {
	Model    string
	Messages []messageView
	Busy     bool
}

type templateRenderer struct {
	templates *template.Template
}

func (t *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// New creates a Server for store and subscribes it to transcript events.
// Call Close (or Run, which closes on return) to release the subscription.
func New(store *transcript.Store, opts Options) (*Server, error) {
	logger := log.Logger.With().Str("component", "server").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Policy == "" {
		opts.Policy = render.PolicyTrusted
	}

	tmpl, err := template.ParseFS(assets, "assets/templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: tmpl}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s := &Server{
		echo:     e,
		store:    store,
		hub:      NewHub(logger),
		renderer: render.NewHTMLRenderer(opts.Policy),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		addr:    opts.Addr,
		model:   opts.ModelName,
		logger:  logger,
		baseCtx: context.Background(),
	}

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	e.GET("/api/messages", s.handleListMessages)
	e.POST("/api/messages", s.handleSubmit)
	e.GET("/ws", s.handleWebSocket)
	e.StaticFS("/static", echo.MustSubFS(assets, "assets/static"))

	s.unsubscribe = store.Subscribe(s.broadcastEvent)
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Close detaches the server from the transcript and waits for streaming
// replies started over HTTP to settle.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.turns.Wait()
}

// Run serves until ctx is cancelled or the process is interrupted, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Close()

	eg, gctx := errgroup.WithContext(ctx)
	s.baseCtx = gctx

	eg.Go(func() error {
		return s.hub.Run(gctx)
	})

	eg.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-gctx.Done():
		case sig := <-sigCh:
			s.logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down server")
		}
		return nil
	})

	eg.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("starting web chat server")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	})

	return eg.Wait()
}

func (s *Server) handleIndex(c echo.Context) error {
	messages, busy := s.snapshot()
	return c.Render(http.StatusOK, "index.html", pageData{
		Model:    s.model,
		Messages: messages,
		Busy:     busy,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"busy":        s.store.Busy(),
		"messages":    s.store.Len(),
		"connections": s.hub.ClientCount(),
	})
}

func (s *Server) handleListMessages(c echo.Context) error {
	messages, busy := s.snapshot()
	return c.JSON(http.StatusOK, messagesResponse{Messages: messages, Busy: busy})
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	turn, err := s.store.Submit(s.baseCtx, req.Content)
	switch {
	case err == nil:
	case apierrors.IsValidationError(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, transcript.ErrBusy):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Msg("submit failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "submit failed"})
	}

	s.turns.Add(1)
	go func() {
		defer s.turns.Done()
		turn.Drain()
	}()

	return c.JSON(http.StatusAccepted, submitResponse{ID: turn.MessageID(), Index: turn.Index()})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := s.hub.NewClient(conn)
	greet := func() interface{} {
		messages, busy := s.snapshot()
		return eventPayload{Type: "snapshot", Messages: messages, Busy: busy}
	}
	if err := s.hub.Register(s.baseCtx, client, greet); err != nil {
		_ = conn.Close()
		return nil
	}
	s.logger.Info().Str("client_id", client.ID).Msg("websocket connected")

	go s.hub.writePump(client)
	s.hub.readPump(s.baseCtx, client)
	return nil
}

func (s *Server) broadcastEvent(ev transcript.Event) {
	view := s.view(ev.Message, ev.Busy && ev.Kind != transcript.EventSettled)
	payload := eventPayload{
		Type:    ev.Kind.String(),
		Index:   ev.Index,
		Message: &view,
		Busy:    ev.Busy,
	}
	if err := s.hub.BroadcastJSON(payload); err != nil {
		s.logger.Debug().Err(err).Str("event", payload.Type).Msg("broadcast dropped")
	}
}

func (s *Server) snapshot() ([]messageView, bool) {
	busy := s.store.Busy()
	msgs := s.store.Messages()
	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = s.view(m, busy && i == len(msgs)-1)
	}
	return views, busy
}

// view renders assistant content through the HTML policy. User text stays
// plain and is escaped by the page.
func (s *Server) view(m models.Message, streaming bool) messageView {
	v := messageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if m.IsAssistant() {
		v.HTML = s.renderer.Render(m.Content)
		v.Pending = streaming
	}
	return v
}
