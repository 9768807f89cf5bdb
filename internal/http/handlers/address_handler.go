package handlers

import (
	"github.com/gofiber/fiber/v2"

	"almira/internal/services"
	"almira/internal/validate"
)

type AddressHandler struct {
	Addrs *services.AddressService
}

type addressReq struct {
	AddressType  string `json:"address_type"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

func (r addressReq) input() (services.AddressInput, error) {
	phone, okPhone := validate.Phone(r.Phone)
	if !okPhone {
		return services.AddressInput{}, fiber.NewError(fiber.StatusBadRequest, "invalid phone")
	}
	pin, okPIN := validate.PostalCode(r.PostalCode)
	if !okPIN {
		return services.AddressInput{}, fiber.NewError(fiber.StatusBadRequest, "invalid postal code")
	}
	return services.AddressInput{
		AddressType:  r.AddressType,
		FullName:     r.FullName,
		Phone:        phone,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		PostalCode:   pin,
		Country:      r.Country,
		IsDefault:    r.IsDefault,
	}, nil
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var req addressReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	a, err := h.Addrs.Create(Principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, a)
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	var req addressReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	a, err := h.Addrs.Update(Principal(c), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, a)
}

func (h *AddressHandler) SetDefault(c *fiber.Ctx) error {
	a, err := h.Addrs.SetDefault(Principal(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, a)
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	addrs, err := h.Addrs.List(Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"addresses": addrs})
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	if err := h.Addrs.Delete(Principal(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"ok": true})
}
