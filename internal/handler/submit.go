package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/resolver"
	"github.com/echobrief/api/internal/service"
	"github.com/echobrief/api/pkg/response"
)

type SubmitHandler struct {
	service   *service.SubmitService
	validator *validator.Validate
}

func NewSubmitHandler(svc *service.SubmitService, v *validator.Validate) *SubmitHandler {
	return &SubmitHandler{
		service:   svc,
		validator: v,
	}
}

// Submit handles POST /api/submit.
//
// Response matrix: episode-cache hit → 200 {cached:true}; kick-off → 200
// {cached:false, data with job_id}; resolution outcomes → 200 {error:true};
// unsupported platform or bad variant → 400; anything unexpected → 500.
func (h *SubmitHandler) Submit(c *fiber.Ctx) error {
	var req model.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	// Validation failures stop here: no cache lookup, no bus event.
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	outcome, err := h.service.Submit(c.Context(), req.URL, model.SummaryVariant(req.SummaryVariant))
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrUnsupported):
			return response.ValidationError(c, "Unsupported podcast platform", nil)
		case errors.Is(err, resolver.ErrNotFound), errors.Is(err, resolver.ErrTooLong):
			return response.BusinessError(c, err.Error())
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	if outcome.Cached != nil {
		return response.OK(c, outcome.Cached)
	}
	return response.OK(c, outcome.Accepted)
}

func formatValidationErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fe.Field()+": failed on "+fe.Tag())
	}
	return out
}
