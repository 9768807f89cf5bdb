package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "almira/internal/log"
	"almira/internal/services"
	"almira/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	email, okEmail := validate.Email(req.Email)
	name, okName := validate.Name(req.Name)
	if !okEmail || !okName {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email or name"})
	}
	if !validate.Password(req.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "password must be 8+ chars with upper, lower and digit"})
	}

	u, err := h.Auth.Register(email, name, req.Phone, req.Password)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return created(c, fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	token, u, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return fail(c, err)
	}
	applog.Audit(c, "auth.login", map[string]any{"user_id": u.ID})
	return ok(c, fiber.Map{
		"token": token,
		"user":  fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role},
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := Principal(c)
	u, err := h.Auth.Users.ByID(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "phone": u.Phone, "role": u.Role})
}
