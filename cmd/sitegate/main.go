package main

import (
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/quailhq/sitegate/server"
	"github.com/urfave/cli/v2"
)

var Version = "dev"

func main() {
	app := &cli.App{
		Name:  "sitegate",
		Usage: "Auth gateway for the chat site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				EnvVars: []string{"SITEGATE_ADDR"},
			},
			&cli.StringFlag{
				Name:    "db-name",
				Value:   "sitegate.db",
				EnvVars: []string{"SITEGATE_DB_NAME"},
			},
			&cli.StringFlag{
				Name:    "secure-token",
				EnvVars: []string{"SECURE_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "secure-token-hash",
				EnvVars: []string{"SECURE_TOKEN_HASH"},
			},
			&cli.StringFlag{
				Name:    "site-id",
				EnvVars: []string{"SITE_ID"},
			},
			&cli.StringFlag{
				Name:     "admin-password",
				Required: true,
				EnvVars:  []string{"SITEGATE_ADMIN_PASSWORD"},
			},
			&cli.DurationFlag{
				Name:    "cookie-max-age",
				Value:   720 * time.Hour,
				EnvVars: []string{"SITEGATE_COOKIE_MAX_AGE"},
			},
			&cli.BoolFlag{
				Name:    "require-login",
				Value:   true,
				EnvVars: []string{"SITEGATE_REQUIRE_LOGIN"},
			},
			&cli.StringFlag{
				Name:    "static-file-path",
				EnvVars: []string{"SITEGATE_STATIC_FILE_PATH"},
			},
			&cli.StringFlag{
				Name:    "smtp-user",
				EnvVars: []string{"SITEGATE_SMTP_USER"},
			},
			&cli.StringFlag{
				Name:    "smtp-pass",
				EnvVars: []string{"SITEGATE_SMTP_PASS"},
			},
			&cli.StringFlag{
				Name:    "smtp-host",
				EnvVars: []string{"SITEGATE_SMTP_HOST"},
			},
			&cli.StringFlag{
				Name:    "smtp-port",
				EnvVars: []string{"SITEGATE_SMTP_PORT"},
			},
			&cli.StringFlag{
				Name:    "smtp-email",
				EnvVars: []string{"SITEGATE_SMTP_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "smtp-name",
				EnvVars: []string{"SITEGATE_SMTP_NAME"},
			},
			&cli.BoolFlag{
				Name:    "s3-backups-enabled",
				EnvVars: []string{"SITEGATE_S3_BACKUPS_ENABLED"},
			},
			&cli.StringFlag{
				Name:    "s3-region",
				EnvVars: []string{"SITEGATE_S3_REGION"},
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				EnvVars: []string{"SITEGATE_S3_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "s3-endpoint",
				EnvVars: []string{"SITEGATE_S3_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "s3-access-key",
				EnvVars: []string{"SITEGATE_S3_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "s3-secret-key",
				EnvVars: []string{"SITEGATE_S3_SECRET_KEY"},
			},
		},
		Commands: []*cli.Command{
			run,
		},
		ErrWriter: os.Stdout,
		Version:   Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

var run = &cli.Command{
	Name:  "run",
	Usage: "Start the sitegate server",
	Flags: []cli.Flag{},
	Action: func(cmd *cli.Context) error {
		s, err := server.New(&server.Args{
			Addr:            cmd.String("addr"),
			DbName:          cmd.String("db-name"),
			Version:         Version,
			SecureToken:     cmd.String("secure-token"),
			SecureTokenHash: cmd.String("secure-token-hash"),
			SiteID:          cmd.String("site-id"),
			AdminPassword:   cmd.String("admin-password"),
			CookieMaxAge:    cmd.Duration("cookie-max-age"),
			RequireLogin:    cmd.Bool("require-login"),
			StaticFilePath:  cmd.String("static-file-path"),
			SmtpUser:        cmd.String("smtp-user"),
			SmtpPass:        cmd.String("smtp-pass"),
			SmtpHost:        cmd.String("smtp-host"),
			SmtpPort:        cmd.String("smtp-port"),
			SmtpEmail:       cmd.String("smtp-email"),
			SmtpName:        cmd.String("smtp-name"),
			S3Config: &server.S3Config{
				BackupsEnabled: cmd.Bool("s3-backups-enabled"),
				Region:         cmd.String("s3-region"),
				Bucket:         cmd.String("s3-bucket"),
				Endpoint:       cmd.String("s3-endpoint"),
				AccessKey:      cmd.String("s3-access-key"),
				SecretKey:      cmd.String("s3-secret-key"),
			},
		})
		if err != nil {
			fmt.Printf("error creating sitegate: %v", err)
			return err
		}

		if err := s.Serve(cmd.Context); err != nil {
			fmt.Printf("error starting sitegate: %v", err)
			return err
		}

		return nil
	},
}
