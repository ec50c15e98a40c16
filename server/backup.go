package server

import (
	"bytes"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

func (s *Server) backupRoutine() {
	if s.s3Config == nil || !s.s3Config.BackupsEnabled {
		return
	}

	var missing string
	switch {
	case s.s3Config.Region == "":
		missing = "region"
	case s.s3Config.Bucket == "":
		missing = "bucket"
	case s.s3Config.AccessKey == "":
		missing = "access key"
	case s.s3Config.SecretKey == "":
		missing = "secret key"
	}
	if missing != "" {
		s.logger.Warn("backups are enabled but s3 is not fully configured. backups will not run.", "missing", missing)
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	s.doBackup()
	for range ticker.C {
		s.doBackup()
	}
}

func (s *Server) doBackup() {
	start := time.Now()
	s.logger.Info("backing up database to s3...")

	data, err := os.ReadFile(s.dbName)
	if err != nil {
		s.logger.Error("error reading database for backup", "error", err)
		return
	}

	cfg := &aws.Config{
		Region:      aws.String(s.s3Config.Region),
		Credentials: credentials.NewStaticCredentials(s.s3Config.AccessKey, s.s3Config.SecretKey, ""),
	}
	if s.s3Config.Endpoint != "" {
		cfg.Endpoint = aws.String(s.s3Config.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		s.logger.Error("error creating s3 session", "error", err)
		return
	}

	key := "sitegate-backup-" + time.Now().Format("2006-01-02_15-04-05") + ".db"
	if _, err := s3.New(sess).PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.s3Config.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}); err != nil {
		s.logger.Error("error uploading backup to s3", "error", err)
		return
	}

	s.logger.Info("finished uploading backup", "key", key, "duration", time.Since(start).Seconds())
}
