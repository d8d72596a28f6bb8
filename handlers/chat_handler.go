package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// ChatResponder turns a user message into reply text.
type ChatResponder interface {
	Respond(ctx context.Context, message string) string
}

type ChatHandler struct {
	Chat ChatResponder
}

func NewChatHandler(chat ChatResponder) *ChatHandler {
	return &ChatHandler{Chat: chat}
}

// GetResponse reads "message" from the query string, a form field or a JSON
// body and always answers 200 with {"response": ...}.
func (h *ChatHandler) GetResponse(c *fiber.Ctx) error {
	message := c.Query("message")
	if message == "" && c.Method() == fiber.MethodPost {
		message = c.FormValue("message")
		if message == "" && len(c.Body()) > 0 {
			var body struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(c.Body(), &body); err == nil {
				message = body.Message
			}
		}
	}

	return c.JSON(fiber.Map{
		"response": h.Chat.Respond(c.UserContext(), message),
	})
}
