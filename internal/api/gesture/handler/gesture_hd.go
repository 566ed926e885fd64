package gestureHandler

import (
	"errors"
	"strconv"
	"time"

	"ProjectGesture/internal/api/gesture"
	contextPkg "ProjectGesture/pkg/context"
	"ProjectGesture/pkg/handlerUtil"
	"ProjectGesture/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const userIDHeader = "X-User-ID"

func (h *GestureHandler) ProcessGesture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 90*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing gesture submission")

	userID := ctx.Get(userIDHeader)
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("X-User-ID header is required"), ctx.Path())
	}

	var req gesture.ProcessGestureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	record, err := h.gestureService.ProcessGesture(c, userID, req.GestureType, req.Data)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_gesture")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, record)
	}
}

func (h *GestureHandler) GetGestureHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userID := ctx.Get(userIDHeader)
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("X-User-ID header is required"), ctx.Path())
	}

	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))

	history, err := h.gestureService.GetGestureHistory(c, userID, page, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_gesture_history")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, history)
}

func (h *GestureHandler) GetGesture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userID := ctx.Get(userIDHeader)
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("X-User-ID header is required"), ctx.Path())
	}

	gestureID := ctx.Params("id")

	record, err := h.gestureService.GetGestureByID(c, userID, gestureID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_gesture")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, record)
}

func (h *GestureHandler) DeleteGesture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userID := ctx.Get(userIDHeader)
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("X-User-ID header is required"), ctx.Path())
	}

	gestureID := ctx.Params("id")

	if err := h.gestureService.DeleteGesture(c, userID, gestureID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_gesture")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"message": "Gesture deleted",
	})
}

func (h *GestureHandler) SearchGestures(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userID := ctx.Get(userIDHeader)
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("X-User-ID header is required"), ctx.Path())
	}

	query := ctx.Query("q")
	if query == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("query parameter q is required"), ctx.Path())
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))

	results, err := h.gestureService.SearchGestures(c, userID, query, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "search_gestures")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, results)
}

func (h *GestureHandler) GetIntentions(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.gestureService.GetIntentions())
}

func (h *GestureHandler) RegisterIntention(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var req gesture.RegisterIntentionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.gestureService.RegisterIntention(req)

	return errHandler.HandleSuccess(ctx, fiber.StatusCreated, fiber.Map{
		"message": "Intention registered",
	})
}
