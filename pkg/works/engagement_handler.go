package works

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler handles the client engagement API calls, all of them need the work:manage permission
type Handler struct {
	EngagementRepository EngagementRepositoryInterface
	Logger               logger.Interface
	ResponseManager      *communication.ResponseManager
}

func (handler *Handler) authorize(writer http.ResponseWriter, request *http.Request) (auth.Identity, bool) {
	identity, _ := auth.IdentityFromContext(request.Context())
	if !identity.Can(policy.ActionWorkManage, false) {
		handler.ResponseManager.RespondWithError(writer, http.StatusForbidden,
			"Access denied for role "+identity.Role.String(), communication.ErrForbidden)
		return identity, false
	}

	return identity, true
}

// WorkAdd creates an engagement
func (handler *Handler) WorkAdd(writer http.ResponseWriter, request *http.Request) {
	identity, ok := handler.authorize(writer, request)
	if !ok {
		return
	}

	engagement := Engagement{}
	err := json.NewDecoder(request.Body).Decode(&engagement)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	if engagement.Status == "" {
		engagement.Status = StatusProposalGiven
	}

	createdBy, err := primitive.ObjectIDFromHex(identity.SubjectID)
	if err == nil {
		engagement.CreatedBy = createdBy
	}

	v := validator.New()
	err = v.Struct(engagement)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	err = handler.EngagementRepository.Add(request.Context(), &engagement)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Work couldn't be persisted in the database", err)
		return
	}

	handler.ResponseManager.RespondWithStatus(writer, &engagement, http.StatusCreated)
}

// WorkList returns a page of engagements, newest first
func (handler *Handler) WorkList(writer http.ResponseWriter, request *http.Request) {
	if _, ok := handler.authorize(writer, request); !ok {
		return
	}

	pagination, err := communication.ParsePagination(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad pagination", err)
		return
	}

	engagements, count, err := handler.EngagementRepository.FindAll(request.Context(), pagination.Page, pagination.PageSize)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	handler.ResponseManager.Respond(writer, communication.PaginatedResponse(engagements, count, pagination))
}

// WorkUpdate changes the fields present in the body, status changes are free-form
func (handler *Handler) WorkUpdate(writer http.ResponseWriter, request *http.Request) {
	if _, ok := handler.authorize(writer, request); !ok {
		return
	}

	patch := EngagementPatch{}
	err := json.NewDecoder(request.Body).Decode(&patch)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	engagement, err := handler.EngagementRepository.FindByID(request.Context(), mux.Vars(request)["workID"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Could not find work", err)
		return
	}

	patch.Apply(engagement)

	v := validator.New()
	err = v.Struct(engagement)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	err = handler.EngagementRepository.Update(request.Context(), engagement, &patch)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Could not update work", err)
		return
	}

	handler.ResponseManager.Respond(writer, engagement)
}

// WorkDelete removes an engagement
func (handler *Handler) WorkDelete(writer http.ResponseWriter, request *http.Request) {
	if _, ok := handler.authorize(writer, request); !ok {
		return
	}

	err := handler.EngagementRepository.Remove(request.Context(), mux.Vars(request)["workID"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Could not delete work", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}
