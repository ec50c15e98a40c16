package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"
	"sync"
	"time"

	"github.com/domodwyer/mailyak/v3"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/quailhq/sitegate/internal/db"
	"github.com/quailhq/sitegate/internal/token"
	"github.com/quailhq/sitegate/models"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type S3Config struct {
	BackupsEnabled bool
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
}

type Server struct {
	httpd  *http.Server
	echo   *echo.Echo
	db     *db.DB
	logger *slog.Logger
	config *config
	codec  *token.Codec

	mail   *mailyak.MailYak
	mailLk *sync.Mutex

	dbName   string
	s3Config *S3Config
}

type Args struct {
	Addr    string
	DbName  string
	Logger  *slog.Logger
	Version string

	SecureToken     string
	SecureTokenHash string
	SiteID          string
	AdminPassword   string
	CookieMaxAge    time.Duration
	RequireLogin    bool

	SmtpUser  string
	SmtpPass  string
	SmtpHost  string
	SmtpPort  string
	SmtpEmail string
	SmtpName  string

	StaticFilePath string

	S3Config *S3Config
}

type config struct {
	Version        string
	SiteID         string
	AdminPassword  string
	CookieMaxAge   time.Duration
	RequireLogin   bool
	SmtpEmail      string
	SmtpName       string
	StaticFilePath string
}

type CustomValidator struct {
	validator *validator.Validate
}

type ValidationError struct {
	error
	Field string
	Tag   string
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		var validateErrors validator.ValidationErrors
		if errors.As(err, &validateErrors) && len(validateErrors) > 0 {
			first := validateErrors[0]
			return ValidationError{
				error: err,
				Field: first.Field(),
				Tag:   first.Tag(),
			}
		}

		return err
	}

	return nil
}

func New(args *Args) (*Server, error) {
	if args.Addr == "" {
		return nil, fmt.Errorf("addr must be set")
	}

	if args.DbName == "" {
		return nil, fmt.Errorf("db name must be set")
	}

	if args.AdminPassword == "" {
		return nil, fmt.Errorf("admin password must be set")
	}

	if args.CookieMaxAge == 0 {
		args.CookieMaxAge = 720 * time.Hour
	}

	if args.Logger == nil {
		args.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}

	// The secrets are allowed to be absent at startup. Every verification and
	// issuance path fails closed with a 500 until they are configured, which
	// beats refusing to boot on a box that only serves public pages.
	if args.SecureToken == "" || args.SecureTokenHash == "" {
		args.Logger.Warn("secure token material is not fully configured. all token issuance will fail until it is.")
	} else if token.HashToken(args.SecureToken) != args.SecureTokenHash {
		args.Logger.Warn("SECURE_TOKEN_HASH does not match SECURE_TOKEN. site cookies will never verify.")
	}

	e := echo.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(slogecho.New(args.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           100_000_000,
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	httpd := &http.Server{
		Addr:         args.Addr,
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	gdb, err := gorm.Open(sqlite.Open(args.DbName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	s := &Server{
		httpd:  httpd,
		echo:   e,
		logger: args.Logger,
		db:     db.NewDB(gdb),
		codec: token.NewCodec(token.Secrets{
			Token: args.SecureToken,
			Hash:  args.SecureTokenHash,
		}, args.CookieMaxAge),
		config: &config{
			Version:        args.Version,
			SiteID:         args.SiteID,
			AdminPassword:  args.AdminPassword,
			CookieMaxAge:   args.CookieMaxAge,
			RequireLogin:   args.RequireLogin,
			SmtpEmail:      args.SmtpEmail,
			SmtpName:       args.SmtpName,
			StaticFilePath: args.StaticFilePath,
		},

		dbName:   args.DbName,
		s3Config: args.S3Config,
	}

	if args.SmtpUser == "" || args.SmtpPass == "" || args.SmtpHost == "" || args.SmtpPort == "" || args.SmtpEmail == "" {
		args.Logger.Warn("not enough smtp args were provided. contact notifications will not be sent.")
	} else {
		mail := mailyak.New(args.SmtpHost+":"+args.SmtpPort, smtp.PlainAuth("", args.SmtpUser, args.SmtpPass, args.SmtpHost))
		mail.From(args.SmtpEmail)
		mail.FromName(args.SmtpName)

		s.mail = mail
		s.mailLk = &sync.Mutex{}
	}

	return s, nil
}

func (s *Server) addRoutes() {
	s.echo.Use(s.handleGateMiddleware)

	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/robots.txt", s.handleRobots)

	// the rate limiter is a plain pass/fail gate in front of the credential
	// endpoints; nothing downstream knows it exists
	rl := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))

	s.echo.POST("/api/login", s.handleLogin, rl)
	s.echo.POST("/api/logout", s.handleLogout)
	s.echo.GET("/api/token", s.handleWebToken, rl)
	s.echo.POST("/api/client-token", s.handleClientToken, rl)
	s.echo.POST("/api/contact", s.handleContact, rl)

	s.echo.GET("/api/session", s.handleSession)

	// admin routes
	s.echo.GET("/api/admin/settings", s.handleAdminGetSettings, s.handleAdminMiddleware)
	s.echo.PUT("/api/admin/settings", s.handleAdminPutSettings, s.handleAdminMiddleware)
	s.echo.GET("/api/admin/messages", s.handleAdminListMessages, s.handleAdminMiddleware)
	s.echo.DELETE("/api/admin/messages/:id", s.handleAdminDeleteMessage, s.handleAdminMiddleware)

	if s.config.StaticFilePath != "" {
		s.echo.Static("/", s.config.StaticFilePath)
	}
}

func (s *Server) migrate() error {
	return s.db.AutoMigrate(
		&models.Settings{},
		&models.ContactMessage{},
	)
}

func (s *Server) Serve(ctx context.Context) error {
	s.addRoutes()

	s.logger.Info("migrating...")

	if err := s.migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	s.logger.Info("starting sitegate", "addr", s.httpd.Addr, "version", s.config.Version)

	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	go s.backupRoutine()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpd.Shutdown(shutdownCtx)
}
