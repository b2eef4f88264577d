// Package server wires the adapters, pipeline, and HTTP surface into one
// runnable instance.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sprintlens/sprintlens/ai"
	"github.com/sprintlens/sprintlens/bot"
	"github.com/sprintlens/sprintlens/internal/metrics"
	"github.com/sprintlens/sprintlens/internal/profile"
	"github.com/sprintlens/sprintlens/plugin/chatops/channels"
	slackchannel "github.com/sprintlens/sprintlens/plugin/chatops/channels/slack"
	telegramchannel "github.com/sprintlens/sprintlens/plugin/chatops/channels/telegram"
	apiv1 "github.com/sprintlens/sprintlens/server/router/api/v1"
	"github.com/sprintlens/sprintlens/source/codehost"
	"github.com/sprintlens/sprintlens/source/gcal"
	"github.com/sprintlens/sprintlens/source/slackchat"
	"github.com/sprintlens/sprintlens/source/tracker"
	"github.com/sprintlens/sprintlens/summary"
)

// Server is the running SprintLens instance.
type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
}

// NewServer constructs every adapter once from the profile and attaches the
// HTTP surface. Unconfigured integrations become degraded (nil) adapters, not
// startup failures.
func NewServer(_ context.Context, instanceProfile *profile.Profile) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	exporter := metrics.NewExporter(metrics.DefaultConfig())

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(observeMiddleware(exporter))

	chatClient := slackchat.New(instanceProfile.SlackBotToken)
	codeClient := codehost.New(instanceProfile.GitHubToken, instanceProfile.GitHubRepo)
	trackerClient := tracker.New(instanceProfile.JiraServer, instanceProfile.JiraEmail, instanceProfile.JiraAPIToken)
	calendarClient := gcal.New(instanceProfile.GoogleClientID, instanceProfile.GoogleClientSecret, instanceProfile.Data)

	aggregator := summary.NewAggregator(chatClient, codeClient, trackerClient, calendarClient).WithObserver(exporter)
	summarizer := ai.NewClient(&ai.Config{
		Provider: instanceProfile.LLMProvider,
		Model:    instanceProfile.LLMModel,
		APIKey:   instanceProfile.LLMAPIKey,
		BaseURL:  instanceProfile.LLMBaseURL,
		Timeout:  instanceProfile.LLMTimeout,
	})

	router := channels.NewRouter()
	router.Register(slackchannel.NewChannel(chatClient))
	if instanceProfile.IsTelegramConfigured() {
		telegramChannel, err := telegramchannel.NewChannel(instanceProfile.TelegramBotToken)
		if err != nil {
			slog.Warn("server: telegram channel unavailable", "error", err)
		} else {
			router.Register(telegramChannel)
		}
	}

	botService := bot.NewService(
		aggregator,
		summarizer,
		router,
		instanceProfile.IsCodeConfigured(),
		statusLine(instanceProfile),
	)

	s := &Server{
		Profile:    instanceProfile,
		echoServer: e,
		apiV1: &apiv1.APIV1Service{
			Profile:    instanceProfile,
			Aggregator: aggregator,
			Summarizer: summarizer,
			Bot:        botService,
			Metrics:    exporter,
			Chat:       chatClient,
			Code:       codeClient,
			Tracker:    trackerClient,
			Calendar:   calendarClient,
		},
	}

	e.GET("/", s.instanceInfo)
	e.GET("/api", s.instanceInfo)
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	s.apiV1.RegisterRoutes(e)

	return s, nil
}

// Start begins serving in the background. Listener failures surface through
// the process log; callers block on their own signal handling.
func (s *Server) Start(_ context.Context) error {
	if s.Profile.UNIXSock != "" {
		listener, err := net.Listen("unix", s.Profile.UNIXSock)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on unix socket %s", s.Profile.UNIXSock)
		}
		s.echoServer.Listener = listener
		go func() {
			if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server: serve failed", "error", err)
			}
		}()
		return nil
	}

	address := net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server: serve failed", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests with a bounded grace period.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("server: shutdown failed", "error", err)
	}

	if s.Profile.UNIXSock != "" {
		_ = os.Remove(s.Profile.UNIXSock)
	}
	slog.Info("server: stopped")
}

func (s *Server) instanceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "SprintLens",
		"version": s.Profile.Version,
		"mode":    s.Profile.Mode,
		"docs":    "/api/v1",
	})
}

// observeMiddleware records one metrics sample and one structured log line
// per handled request. The route template keeps path cardinality bounded.
func observeMiddleware(exporter *metrics.Exporter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			routePath := c.Path()
			if routePath == "" {
				routePath = c.Request().URL.Path
			}
			duration := time.Since(start)
			exporter.ObserveHTTPRequest(c.Request().Method, routePath, strconv.Itoa(status), duration)

			logger := slog.Debug
			if status >= 500 {
				logger = slog.Warn
			}
			logger("http request",
				"method", c.Request().Method,
				"path", routePath,
				"status", status,
				"duration_ms", duration.Milliseconds(),
			)
			return nil
		}
	}
}

// statusLine renders the fixed integration status answered to "status"
// mentions.
func statusLine(p *profile.Profile) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	lines := []string{
		"🔌 *Integration Status:*",
		fmt.Sprintf("%s LLM (%s)", mark(p.IsLLMConfigured()), p.LLMProvider),
		fmt.Sprintf("%s Slack", mark(p.IsChatConfigured())),
		fmt.Sprintf("%s GitHub", mark(p.IsCodeConfigured())),
		fmt.Sprintf("%s Jira", mark(p.IsTrackerConfigured())),
		fmt.Sprintf("%s Google Calendar", mark(p.IsCalendarConfigured())),
		fmt.Sprintf("%s Telegram", mark(p.IsTelegramConfigured())),
	}
	return strings.Join(lines, "\n")
}
