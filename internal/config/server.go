package config

import (
	"fmt"
	"os"

	"ProjectGesture/database/postgres"
	gestureHandler "ProjectGesture/internal/api/gesture/handler"
	gestureRepository "ProjectGesture/internal/api/gesture/repository"
	gestureService "ProjectGesture/internal/api/gesture/service"
	"ProjectGesture/internal/middleware"
	"ProjectGesture/pkg/elevenlabs"
	"ProjectGesture/pkg/inference"
	"ProjectGesture/pkg/intention"
	"ProjectGesture/pkg/preprocessor"
	redisPkg "ProjectGesture/pkg/redis"
	"ProjectGesture/pkg/s3"
	"ProjectGesture/pkg/searchable"
	"ProjectGesture/pkg/speech"
	"ProjectGesture/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	speechCache redisPkg.ICache
	classifier  inference.IClassifier
	ttsClient   elevenlabs.ITTS
	s3Client    s3.ItfS3
	searchable  searchable.ISearchable
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithSpeechCache(cache redisPkg.ICache) ServerOption {
	return func(s *Server) error {
		s.speechCache = cache
		return nil
	}
}

func WithClassifier() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before classifier")
		}
		s.classifier = inference.New(s.log)
		return nil
	}
}

func WithTTSClient() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before TTS client")
		}
		s.ttsClient = elevenlabs.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			// Audio offload is optional, keep serving from local disk.
			if s.log != nil {
				s.log.Warnf("S3 client unavailable, audio stays on local disk: %v", err)
			}
			return nil
		}
		s.s3Client = client
		return nil
	}
}

func WithSearchable() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before searchable client")
		}
		s.searchable = searchable.New(s.log)
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Gesture Domain
	gestureRepo := gestureRepository.New(s.db, s.log)
	gesturePreprocessor := preprocessor.New()
	intentionMapper := intention.NewMapper(s.log)
	speechSynthesizer := speech.New(s.log, s.speechCache, s.ttsClient, s.s3Client)
	gestureServices := gestureService.New(s.log, gestureRepo, gesturePreprocessor, s.classifier, intentionMapper, speechSynthesizer, s.searchable, s.s3Client, s.utils)
	gestureHandlers := gestureHandler.New(s.log, s.validator, s.middleware, gestureServices, s.utils)

	s.setupHealthCheck()
	s.setupStaticAssets()
	s.handlers = append(s.handlers, gestureHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}

func (s *Server) setupStaticAssets() {
	staticRoot := os.Getenv("STATIC_ROOT")
	if staticRoot == "" {
		staticRoot = "./storage/static"
	}

	s.engine.Static("/static", staticRoot)
}
