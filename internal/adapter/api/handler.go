package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"policychat/internal/domain/entity"
	"policychat/internal/usecase"
)

const sessionHeader = "X-Session-Token"

type ChatHandler struct {
	sessions     *usecase.SessionManager
	orchestrator *usecase.Orchestrator
}

func NewChatHandler(sessions *usecase.SessionManager, orch *usecase.Orchestrator) *ChatHandler {
	return &ChatHandler{sessions: sessions, orchestrator: orch}
}

type loginRequest struct {
	Email string `json:"email"`
}

func (h *ChatHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := h.sessions.Login(req.Email)
	if err != nil {
		if errors.Is(err, entity.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized email"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token":       sess.Token,
		"email":       sess.Email,
		"collections": sess.Collections,
	})
}

func (h *ChatHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.Get(sessionHeader)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown session"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type askRequest struct {
	Collection string `json:"collection"`
	Question   string `json:"question"`
}

func (h *ChatHandler) HandleAsk(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Get(sessionHeader))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown session"})
	}

	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Collection == "" {
		req.Collection = sess.DefaultCollection()
	}
	if !sess.Allowed(req.Collection) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "collection not allowed"})
	}

	ex, err := h.orchestrator.Ask(c.Context(), sess, req.Collection, req.Question)
	if err != nil {
		if errors.Is(err, entity.ErrEmptyQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question must not be empty"})
		}
		// Dimension mismatch and other programming errors: loud, not degraded.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal gateway error"})
	}

	c.Set("X-Cache-Hit", "false")
	if ex.Cached {
		c.Set("X-Cache-Hit", "true")
	}
	return c.Status(fiber.StatusOK).JSON(ex)
}

func (h *ChatHandler) HandleHistory(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Get(sessionHeader))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown session"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"turns": sess.History.Turns()})
}
