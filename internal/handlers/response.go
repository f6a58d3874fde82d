package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/platform_be/internal/middleware"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func fieldFail(c *fiber.Ctx, field, msg string) error {
	errs := FieldErrors{}
	errs.Add(field, msg)
	return validationFail(c, errs)
}

func fail200(c *fiber.Ctx, message string, extra ...fiber.Map) error {
	resp := fiber.Map{
		"success": false,
		"message": message,
	}
	if len(extra) > 0 {
		for k, v := range extra[0] {
			resp[k] = v
		}
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func failStatus(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func fail403(c *fiber.Ctx, message string) error {
	return failStatus(c, fiber.StatusForbidden, message)
}

func fail404(c *fiber.Ctx, message string) error {
	return failStatus(c, fiber.StatusNotFound, message)
}

func fail500(c *fiber.Ctx, message string) error {
	return failStatus(c, fiber.StatusInternalServerError, message)
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	resp := fiber.Map{"success": true}
	if message != "" {
		resp["message"] = message
	}
	if data != nil {
		resp["data"] = data
	}
	return c.JSON(resp)
}

// getAuth returns the caller's user id from the session identity.
func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	id, found := middleware.CurrentIdentity(c)
	if !found {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return id.UserID, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusNotFound, "not found")
	}
	return id, nil
}

// queryFloat returns nil when the parameter is missing or not a number.
func queryFloat(c *fiber.Ctx, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
