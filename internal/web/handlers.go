package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helsinkigse/seminar-digest/internal/calendar"
	"github.com/helsinkigse/seminar-digest/internal/digest"
	"github.com/helsinkigse/seminar-digest/internal/filter"
	"github.com/helsinkigse/seminar-digest/internal/token"
)

// seriesCategories maps feed slugs to the category names tagged on events.
var seriesCategories = map[string]string{
	"micro":         "Microeconomics",
	"environmental": "Environmental Economics",
	"behavioral":    "Behavioral Economics",
	"io":            "Industrial Organization",
	"colloquium":    "Colloquium",
	"vatt":          "VATT",
	"trade-urban":   "Trade, Regional and Urban Economics",
}

type subscribeRequest struct {
	Email string `form:"email" binding:"required,email"`
}

func (s *Server) subscribeForm(c *gin.Context) {
	c.HTML(http.StatusOK, "subscribe.html", gin.H{})
}

func (s *Server) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		s.renderMessage(c, http.StatusBadRequest, "Something went wrong",
			"Please enter a valid email address.")
		return
	}

	outcome, err := s.store.CreateOrReactivateSubscriber(c.Request.Context(), req.Email)
	if err != nil {
		s.log.Error("subscribe failed", zap.Error(err))
		s.renderMessage(c, http.StatusInternalServerError, "Something went wrong",
			"We could not process your subscription. Please try again later.")
		return
	}

	if !outcome.NeedsConfirmation() {
		s.renderMessage(c, http.StatusOK, "Already subscribed",
			"This address already receives the weekly digest. No further action is needed.")
		return
	}

	confirmURL := s.actionURL("/confirm", req.Email, token.ActionConfirm)
	if err := s.mailer.SendConfirmation(c.Request.Context(), req.Email, confirmURL); err != nil {
		s.log.Error("confirmation email failed", zap.Error(err))
		s.renderMessage(c, http.StatusInternalServerError, "Something went wrong",
			"We could not send the confirmation email. Please try again later.")
		return
	}

	s.renderMessage(c, http.StatusOK, "Check your inbox",
		"We sent a confirmation link to your address. Click it to start receiving the weekly digest.")
}

func (s *Server) confirm(c *gin.Context) {
	email, ok := s.verifiedEmail(c, token.ActionConfirm)
	if !ok {
		return
	}

	activated, err := s.store.ActivateSubscriber(c.Request.Context(), email)
	if err != nil {
		s.log.Error("activate failed", zap.Error(err))
		s.renderMessage(c, http.StatusInternalServerError, "Something went wrong",
			"We could not confirm your subscription. Please try again later.")
		return
	}
	if !activated {
		s.renderMessage(c, http.StatusNotFound, "Unknown address",
			"We have no pending subscription for this address. Use the form to subscribe first.")
		return
	}

	// Welcome digest for the current week, so new subscribers are not left
	// waiting until the next scheduled send. Failures here do not fail the
	// confirmation.
	s.sendWelcomeDigest(c, email)

	s.renderMessage(c, http.StatusOK, "Subscription confirmed",
		"You will now receive the weekly seminar digest. If this week has seminars, the first one is already on its way.")
}

func (s *Server) sendWelcomeDigest(c *gin.Context, email string) {
	ctx := c.Request.Context()
	now := time.Now()

	events, err := s.store.WeekEvents(ctx, now)
	if err != nil {
		s.log.Warn("welcome digest: loading week events failed", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	unsubscribeURL := s.actionURL("/unsubscribe", email, token.ActionUnsubscribe)
	html, err := digest.Render(events, unsubscribeURL)
	if err != nil {
		s.log.Warn("welcome digest: render failed", zap.Error(err))
		return
	}
	if err := s.mailer.SendDigest(ctx, email, digest.Subject(now), html, unsubscribeURL); err != nil {
		s.log.Warn("welcome digest: send failed", zap.String("email", email), zap.Error(err))
		return
	}

	sub, err := s.store.SubscriberByEmail(ctx, email)
	if err != nil {
		s.log.Warn("welcome digest: subscriber lookup failed", zap.Error(err))
		return
	}
	hashes := make([]string, len(events))
	for i, e := range events {
		hashes[i] = e.Hash()
	}
	if err := s.store.MarkSent(ctx, sub.ID, hashes); err != nil {
		s.log.Warn("welcome digest: marking sent failed", zap.Error(err))
	}
}

func (s *Server) unsubscribe(c *gin.Context) {
	email, ok := s.verifiedEmail(c, token.ActionUnsubscribe)
	if !ok {
		return
	}

	removed, err := s.store.DeactivateSubscriber(c.Request.Context(), email)
	if err != nil {
		s.log.Error("unsubscribe failed", zap.Error(err))
		s.renderMessage(c, http.StatusInternalServerError, "Something went wrong",
			"We could not process the unsubscribe. Please try again later.")
		return
	}
	if !removed {
		s.renderMessage(c, http.StatusNotFound, "Unknown address",
			"This address is not subscribed.")
		return
	}

	s.renderMessage(c, http.StatusOK, "Unsubscribed",
		"You will no longer receive the weekly seminar digest. Sorry to see you go.")
}

func (s *Server) calendarFeed(c *gin.Context) {
	slug := strings.TrimSuffix(c.Param("series"), ".ics")
	category, ok := seriesCategories[slug]
	if !ok {
		s.renderMessage(c, http.StatusNotFound, "Unknown feed",
			"There is no seminar series with that name.")
		return
	}

	events, err := s.store.UpcomingEvents(c.Request.Context(), time.Now())
	if err != nil {
		s.log.Error("calendar feed failed", zap.String("series", slug), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	f := filter.Filter{Categories: []string{category}}
	feed := calendar.SeriesFeed(category, f.Apply(events))

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `inline; filename="`+slug+`.ics"`)
	c.String(http.StatusOK, feed)
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// verifiedEmail extracts the email and token query parameters and checks the
// token for the given action. It renders the error page itself when
// verification fails.
func (s *Server) verifiedEmail(c *gin.Context, action string) (string, bool) {
	email := c.Query("email")
	tok := c.Query("token")
	if email == "" || tok == "" || !s.tokens.Verify(email, action, tok) {
		s.renderMessage(c, http.StatusForbidden, "Invalid link",
			"This link is invalid or was issued for a different address.")
		return "", false
	}
	return email, true
}

func (s *Server) actionURL(path, email, action string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", s.tokens.Generate(email, action))
	return s.baseURL + path + "?" + q.Encode()
}

func (s *Server) renderMessage(c *gin.Context, status int, title, body string) {
	c.HTML(status, "message.html", gin.H{"Title": title, "Body": body})
}
