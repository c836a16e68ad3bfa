package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListHouseholds returns a page of registered households. Admin only.
func (s *Server) ListHouseholds(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	households, err := s.directoryRepo.ListHouseholds(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"households": households})
}

// GetHousehold returns one household with its members. Admin only.
func (s *Server) GetHousehold(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	household, err := s.directoryRepo.GetHousehold(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(household)
}

// ListOfficials returns barangay officials, active ones by default.
func (s *Server) ListOfficials(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", true)
	officials, err := s.directoryRepo.ListOfficials(c.Context(), activeOnly)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"officials": officials})
}
