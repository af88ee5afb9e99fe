// Package web serves the subscription flow: the subscribe form, the double
// opt-in confirm link, unsubscribe, and the per-series iCalendar feeds.
package web

import (
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/event"
	"github.com/helsinkigse/seminar-digest/internal/store"
	"github.com/helsinkigse/seminar-digest/internal/token"
)

//go:embed templates/*.html
var templateFS embed.FS

// Store is the slice of the persistence layer the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	CreateOrReactivateSubscriber(ctx context.Context, email string) (store.SubscribeOutcome, error)
	ActivateSubscriber(ctx context.Context, email string) (bool, error)
	DeactivateSubscriber(ctx context.Context, email string) (bool, error)
	SubscriberByEmail(ctx context.Context, email string) (store.Subscriber, error)
	WeekEvents(ctx context.Context, ref time.Time) ([]event.Event, error)
	UpcomingEvents(ctx context.Context, from time.Time) ([]event.Event, error)
	MarkSent(ctx context.Context, subscriberID int64, hashes []string) error
}

// Mailer sends the transactional emails the handlers trigger.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, confirmURL string) error
	SendDigest(ctx context.Context, to, subject, html, unsubscribeURL string) error
}

// Server holds the handler dependencies.
type Server struct {
	store   Store
	mailer  Mailer
	tokens  *token.Manager
	baseURL string
	log     *zap.Logger
	metrics *Metrics
}

// New creates a Server. baseURL is the externally visible address used in
// email links, without a trailing slash.
func New(st Store, mailer Mailer, tokens *token.Manager, baseURL string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:   st,
		mailer:  mailer,
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		metrics: NewMetrics(),
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.log))
	r.Use(s.metrics.Middleware())

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.subscribeForm)
	r.POST("/subscribe", s.subscribe)
	r.GET("/confirm", s.confirm)
	r.GET("/unsubscribe", s.unsubscribe)
	r.GET("/calendar/:series", s.calendarFeed)
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}
