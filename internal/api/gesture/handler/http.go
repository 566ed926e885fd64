package gestureHandler

import (
	gestureService "ProjectGesture/internal/api/gesture/service"
	"ProjectGesture/internal/middleware"
	"ProjectGesture/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type GestureHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	gestureService gestureService.IGestureService
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	gs gestureService.IGestureService,
	utils utils.IUtils,
) *GestureHandler {
	return &GestureHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		gestureService: gs,
		utils:          utils,
	}
}

func (h *GestureHandler) Start(srv fiber.Router) {
	gestures := srv.Group("/gestures")

	gestures.Use(h.middleware.NewRateLimiter)

	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	// Real-time gesture streaming
	gestures.Use("/ws", wsMiddleware)
	gestures.Get("/ws", websocket.New(h.handleGestureStream))

	// HTTP fallback processing and history
	gestures.Post("/", h.ProcessGesture)
	gestures.Get("/", h.GetGestureHistory)
	gestures.Get("/search", h.SearchGestures)

	// Intention table
	intentions := gestures.Group("/intentions")
	intentions.Get("/", h.GetIntentions)
	intentions.Post("/", h.RegisterIntention)

	gestures.Get("/:id", h.GetGesture)
	gestures.Delete("/:id", h.DeleteGesture)
}
