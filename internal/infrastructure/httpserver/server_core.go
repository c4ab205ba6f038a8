package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	customMiddleware "github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Version        string
}

type ServerDeps struct {
	AccountService ports.AccountService
	Tokens         ports.TokenIssuer
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	accountSvc     ports.AccountService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		accountSvc:     deps.AccountService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.Tokens,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = server.handleError

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
