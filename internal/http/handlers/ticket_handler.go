package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "almira/internal/log"
	"almira/internal/services"
)

type TicketHandler struct {
	Tickets *services.TicketService
}

func (h *TicketHandler) Open(c *fiber.Ctx) error {
	var req struct {
		Subject  string `json:"subject"`
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	t, err := h.Tickets.Open(Principal(c), req.Subject, req.Message, req.Priority)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "ticket.open", map[string]any{"ticket_id": t.ID, "ticket_number": t.TicketNumber})
	return created(c, t)
}

func (h *TicketHandler) Reply(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	m, err := h.Tickets.Reply(Principal(c), c.Params("id"), req.Message)
	if err != nil {
		return fail(c, err)
	}
	return created(c, m)
}

func (h *TicketHandler) Get(c *fiber.Ctx) error {
	view, err := h.Tickets.Get(Principal(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, view)
}

func (h *TicketHandler) ListMine(c *fiber.Ctx) error {
	tickets, err := h.Tickets.ListMine(Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"tickets": tickets})
}
