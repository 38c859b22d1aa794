package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personnel-service/internal/api/dto"
	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/domain"
	"github.com/spec-kit/personnel-service/internal/repository"
	"github.com/spec-kit/personnel-service/internal/service"
	apperrors "github.com/spec-kit/personnel-service/pkg/util/errorutil"
)

// ApprovalsHandler exposes staff registration and approval endpoints.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalsHandler constructs the handler.
func NewApprovalsHandler(approvals *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals}
}

// Register handles POST /staff/register.
func (h *ApprovalsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.RegisterStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.approvals.Register(c.UserContext(), principal.Identity, service.RegisterInput{
		Type:     req.Type,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Meta:     requestMeta(c),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.RegistrationResponse{
			Identity: dto.NewIdentityResponse(result.Identity),
			Profile:  dto.NewProfileResponse(result.Profile),
			Credentials: dto.CredentialsResponse{
				EmployeeID:        result.Credentials.EmployeeID,
				TemporaryPassword: result.Credentials.TemporaryPassword,
			},
		},
	})
}

// Resolve handles POST /staff/approvals/:id/resolve.
func (h *ApprovalsHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ResolveApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.approvals.Resolve(c.UserContext(), principal.Identity, c.Params("id"), req.Decision, req.Reason, requestMeta(c))
	if err != nil {
		return err
	}

	response := fiber.Map{"profile": dto.NewProfileResponse(result.Profile)}
	if result.Credentials != nil {
		response["credentials"] = result.Credentials
	}
	return c.JSON(fiber.Map{"data": response})
}

// ListPending handles GET /staff/approvals/pending.
func (h *ApprovalsHandler) ListPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := repository.PendingFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("type"); raw != "" {
		profileType := domain.ProfileType(raw)
		filter.Type = &profileType
	}
	if raw := c.Query("registrar_id"); raw != "" {
		filter.RegistrarID = &raw
	}

	profiles, err := h.approvals.ListPending(c.UserContext(), principal.Identity, filter)
	if err != nil {
		return err
	}

	responses := make([]dto.ProfileResponse, len(profiles))
	for i := range profiles {
		responses[i] = dto.NewProfileResponse(&profiles[i])
	}
	return c.JSON(fiber.Map{"data": responses})
}

// ListSupervisors handles GET /staff/general-supervisors/:id/supervisors.
func (h *ApprovalsHandler) ListSupervisors(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	profiles, err := h.approvals.ListSupervisorsUnder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	responses := make([]dto.ProfileResponse, len(profiles))
	for i := range profiles {
		responses[i] = dto.NewProfileResponse(&profiles[i])
	}
	return c.JSON(fiber.Map{"data": responses})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
