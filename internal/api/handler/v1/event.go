package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventra-app/eventra-api/internal/api/handler/v1/request"
	"github.com/eventra-app/eventra-api/internal/api/handler/v1/response"
	"github.com/eventra-app/eventra-api/internal/api/middleware"
	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/repository"
	"github.com/eventra-app/eventra-api/internal/repository/filter"
	"github.com/eventra-app/eventra-api/internal/rules"
	"github.com/eventra-app/eventra-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	ListEvents(ctx context.Context, conds []filter.Condition) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, eventID, organizerID uint, patch domain.EventPatch) (domain.Event, []rules.Violation, error)
	PreviewUpdate(ctx context.Context, eventID, organizerID uint, patch domain.EventPatch) (service.EvaluationResult, error)
	CancelEvent(ctx context.Context, eventID, organizerID uint) error
	RegisterAttendee(ctx context.Context, eventID, userID uint) (domain.Attendance, error)
	SuggestDeadlines(eventDate time.Time) rules.SuggestedDeadlines
	EventStatus(event domain.Event) rules.Status
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create a new event
// @Description  Creates an event. Only organizers may create events; the payload must pass the temporal correlation checks.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  response.Event
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if caller.Role != domain.RoleOrganizer {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", caller.ID)))
		return
	}

	var input request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), input.ToDomain(caller.ID))
	if err != nil {
		var corrErr *service.CorrelationError
		if errors.As(err, &corrErr) {
			response.RenderErr(ctx, response.ErrUnprocessableFields(corrErr.Fields))
			return
		}

		err = fmt.Errorf("HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.NewEvent(created, h.svc.EventStatus(created)))
}

// HandleGetEvents godoc
// @Summary      List events
// @Description  Lists events, optionally filtered by date range, location or organizer.
// @Tags         events
// @Produce      json
// @Param        from          query     string  false  "Earliest event date (RFC 3339)"
// @Param        to            query     string  false  "Latest event date (RFC 3339)"
// @Param        location      query     string  false  "Exact location"
// @Param        organizer_id  query     int     false  "Organizer ID"
// @Success      200  {array}   response.Event
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvents(ctx *gin.Context) {
	conds, respErr := parseEventFilters(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), conds)
	if err != nil {
		err = fmt.Errorf("HandleGetEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewEventList(events, h.svc.EventStatus))
}

// HandleGetEvent godoc
// @Summary      Get one event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  response.Event
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewEvent(event, h.svc.EventStatus(event)))
}

// HandleUpdateEvent godoc
// @Summary      Edit an event
// @Description  Applies a partial edit. The merged record must pass the temporal checks, and the changed fields must clear the attendance/payment edit restrictions.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Changed fields only"
// @Success      200      {object}  response.UpdatedEvent
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [patch]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, advisories, err := h.svc.UpdateEvent(ctx.Request.Context(), eventID, caller.ID, input.ToPatch())
	if err != nil {
		h.renderEditErr(ctx, "HandleUpdateEvent", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, response.UpdatedEvent{
		Event:      response.NewEvent(updated, h.svc.EventStatus(updated)),
		Advisories: advisories,
	})
}

// HandleValidateEvent godoc
// @Summary      Dry-run an event edit
// @Description  Evaluates a proposed edit without saving anything, returning every field error and restriction violation for live form feedback.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Changed fields only"
// @Success      200      {object}  response.Evaluation
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/validate [post]
// @Security BearerAuth
func (h *EventHandler) HandleValidateEvent(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.PreviewUpdate(ctx.Request.Context(), eventID, caller.ID, input.ToPatch())
	if err != nil {
		h.renderEditErr(ctx, "HandleValidateEvent", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleCancelEvent godoc
// @Summary      Cancel an event
// @Tags         events
// @Produce      json
// @Param        eventID  path  int  true  "Event ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleCancelEvent(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.CancelEvent(ctx.Request.Context(), eventID, caller.ID); err != nil {
		h.renderEditErr(ctx, "HandleCancelEvent", eventID, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRegisterForEvent godoc
// @Summary      Register for an event
// @Description  Books a spot for the authenticated user. The event must be upcoming, its registration deadline open, and a seat available.
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      201      {object}  domain.Attendance
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security BearerAuth
func (h *EventHandler) HandleRegisterForEvent(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	attendance, err := h.svc.RegisterAttendee(ctx.Request.Context(), eventID, caller.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrEventCanceled),
			errors.Is(err, service.ErrEventNotUpcoming),
			errors.Is(err, service.ErrRegistrationClosed),
			errors.Is(err, service.ErrEventFull),
			errors.Is(err, service.ErrAlreadyRegistered):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("HandleRegisterForEvent -> h.svc.RegisterAttendee -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, attendance)
}

// HandleSuggestDeadlines godoc
// @Summary      Suggest deadlines for an event date
// @Description  Returns default registration and payment deadlines for a prospective event date. Suggestions never overwrite values the organizer already set.
// @Tags         events
// @Produce      json
// @Param        date  query     string  true  "Event date (RFC 3339)"
// @Success      200   {object}  rules.SuggestedDeadlines
// @Failure      400   {object}  response.Err
// @Router       /deadline-suggestions [get]
// @Security BearerAuth
func (h *EventHandler) HandleSuggestDeadlines(ctx *gin.Context) {
	raw := ctx.Query("date")
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid date %q: %v", raw, err)))
		return
	}

	ctx.JSON(http.StatusOK, h.svc.SuggestDeadlines(date))
}

func (h *EventHandler) renderEditErr(ctx *gin.Context, op string, eventID uint, err error) {
	var (
		corrErr *service.CorrelationError
		restErr *service.RestrictionError
	)
	switch {
	case errors.As(err, &corrErr):
		response.RenderErr(ctx, response.ErrUnprocessableFields(corrErr.Fields))
	case errors.As(err, &restErr):
		response.RenderErr(ctx, response.ErrEditRestricted(restErr.Violations))
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrNotOrganizer):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	case errors.Is(err, service.ErrEmptyPatch):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		err = fmt.Errorf("%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func parseEventFilters(ctx *gin.Context) ([]filter.Condition, *response.Err) {
	var conds []filter.Condition

	add := func(field string, op filter.Operator, value interface{}) *response.Err {
		cond, err := repository.NewEventFilter(field, op, value)
		if err != nil {
			return response.ErrBadRequest(err)
		}
		conds = append(conds, cond)
		return nil
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, response.ErrBadRequest(fmt.Errorf("invalid from %q: %v", raw, err))
		}
		if respErr := add("date", filter.OpGte, from); respErr != nil {
			return nil, respErr
		}
	}
	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, response.ErrBadRequest(fmt.Errorf("invalid to %q: %v", raw, err))
		}
		if respErr := add("date", filter.OpLte, to); respErr != nil {
			return nil, respErr
		}
	}
	if location := ctx.Query("location"); location != "" {
		if respErr := add("location", filter.OpEq, location); respErr != nil {
			return nil, respErr
		}
	}
	if raw := ctx.Query("organizer_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, response.ErrBadRequest(fmt.Errorf("invalid organizer_id %q: %v", raw, err))
		}
		if respErr := add("organizer_id", filter.OpEq, uint(id)); respErr != nil {
			return nil, respErr
		}
	}

	return conds, nil
}

func pathID(ctx *gin.Context, name string) (uint, *response.Err) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %v %q", name, raw))
	}
	return uint(id), nil
}

type caller struct {
	ID   uint
	Role string
}

func callerFromContext(ctx *gin.Context) (caller, *response.Err) {
	id, ok := ctx.Get(middleware.CtxUserIDKey)
	if !ok {
		return caller{}, response.ErrUnauthorized(errors.New("missing authentication"))
	}
	userID, ok := id.(uint)
	if !ok {
		return caller{}, response.ErrUnauthorized(errors.New("invalid authentication"))
	}

	role, _ := ctx.Get(middleware.CtxRoleKey)
	roleStr, _ := role.(string)

	return caller{ID: userID, Role: roleStr}, nil
}
