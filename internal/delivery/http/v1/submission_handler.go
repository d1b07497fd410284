package v1

import (
	"errors"
	"net/http"

	"nmo-web-backend/internal/delivery/http/middleware"
	"nmo-web-backend/internal/delivery/http/response"
	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/apperror"
	"nmo-web-backend/pkg/security"
	"nmo-web-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

const (
	MsgSubmitSucceeded = "تم إرسال طلبك بنجاح! سيتواصل معك فريقنا خلال 24 ساعة."
	MsgInvalidForm     = "يرجى تصحيح الحقول المطلوبة."
	MsgInvalidPayload  = "بيانات الطلب غير صالحة."
)

type SubmissionHandler struct {
	submissionUC domain.SubmissionUsecase
	tracker      *security.ValidationTracker
}

// SubmissionResult is returned after a successful submission
type SubmissionResult struct {
	ID        string `json:"id"`
	Simulated bool   `json:"simulated"`
	FormReset bool   `json:"form_reset"`
}

// ValidationDetails lists the failing fields with their inline messages
type ValidationDetails struct {
	Fields map[string]string `json:"fields"`
	Phone  string            `json:"phone"`
}

// NewSubmissionHandler registers the project request routes (public, no auth required)
func NewSubmissionHandler(public *gin.RouterGroup, submissionUC domain.SubmissionUsecase, tracker *security.ValidationTracker, limiter gin.HandlerFunc) {
	handler := &SubmissionHandler{
		submissionUC: submissionUC,
		tracker:      tracker,
	}

	public.POST("/requests", limiter, handler.SubmitRequest)
}

// SubmitRequest godoc
// @Summary      Submit Project Request
// @Description  Validate and store a project request from the site's contact form. This is a public endpoint.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        request  body      domain.FormFields  true  "Project Request Form"
// @Success      201      {object}  response.Response{data=SubmissionResult}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response{error=ValidationDetails}
// @Failure      429      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Failure      504      {object}  response.Response
// @Router       /requests [post]
func (h *SubmissionHandler) SubmitRequest(c *gin.Context) {
	var form domain.FormFields
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(apperror.BadRequest(MsgInvalidPayload))
		return
	}

	p := &httpPresenter{}
	result := h.submissionUC.HandleSubmit(c.Request.Context(), form, p)

	if !result.Validation.Valid() {
		fields := make([]string, 0, len(result.Validation))
		for _, f := range result.Validation.Fields() {
			fields = append(fields, string(f))
		}
		h.tracker.RecordFailure(c.Request.Context(), form.Email, c.ClientIP(), c.GetString(middleware.RequestIDKey), fields)
		c.Error(apperror.Unprocessable(MsgInvalidForm).WithDetails(ValidationDetails{
			Fields: validation.MessagesFor(fields),
			Phone:  p.phone,
		}))
		return
	}

	if result.Outcome == nil {
		c.Error(apperror.Internal(errors.New("submission finished without outcome")))
		return
	}

	if result.State == domain.StateSucceeded {
		response.Success(c, http.StatusCreated, MsgSubmitSucceeded, SubmissionResult{
			ID:        p.successID,
			Simulated: result.Outcome.Simulated,
			FormReset: p.formReset,
		})
		return
	}

	switch {
	case result.TimedOut:
		c.Error(apperror.GatewayTimeout(p.errorMessage, result.Outcome.Err))
	case errors.Is(result.Outcome.Err, domain.ErrUnexpected):
		c.Error(apperror.New(http.StatusInternalServerError, p.errorMessage, result.Outcome.Err))
	default:
		c.Error(apperror.BadGateway(p.errorMessage, result.Outcome.Err))
	}
}
