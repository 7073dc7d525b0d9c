package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		TripSvc        *transport.TripService
		BoardingSvc    *transport.BoardingService
		StopSvc        *transport.StopService
		AlertSvc       *transport.AlertService
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := func() { _ = s.Stop(context.Background()) }
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, translator, signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	sg := v1.Group("/schools/:schoolID")

	registerTripAPI(sg, s.opts.TripSvc, s.opts.BoardingSvc, validate)
	registerStopAPI(sg, s.opts.StopSvc, validate)
	registerAlertAPI(sg, s.opts.AlertSvc, validate)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Academy Assist Transport API!")
}

// schoolID is the explicit tenant on every route; no ambient current school.
func schoolID(ctx echo.Context) string {
	return ctx.Param("schoolID")
}
