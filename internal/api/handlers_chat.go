// handlers_chat.go - Question answering handler
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ChatHandlerImpl implements the ChatHandler interface
type ChatHandlerImpl struct {
	asker Asker
}

// NewChatHandler creates a new chat handler instance
func NewChatHandler(asker Asker) ChatHandler {
	return &ChatHandlerImpl{asker: asker}
}

// HandleChat answers a question from the indexed documents. The request
// context is passed through, so a client disconnect cancels in-flight
// embedding and completion calls. Collaborator faults map to 502 via the
// error handler; an empty retrieval is a normal 200 whose answer states
// the documents lack the information.
func (h *ChatHandlerImpl) HandleChat(c echo.Context) error {
	question := c.QueryParam("message")
	if question == "" {
		return NewBadRequestError("message query parameter is required", nil)
	}

	exchange, err := h.asker.Ask(c.Request().Context(), question)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, exchange)
}
