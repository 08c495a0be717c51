package tasks

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
)

// Handler handles all task related API calls
type Handler struct {
	Service         *Service
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
}

// TaskAdd is the route for adding a task
func (handler *Handler) TaskAdd(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())
	task := Task{}

	err := json.NewDecoder(request.Body).Decode(&task)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	err = handler.Service.Create(request.Context(), identity, &task)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Task couldn't be created", err)
		return
	}

	handler.ResponseManager.RespondWithStatus(writer, &task, http.StatusCreated)
}

// TaskUpdate is the route for a partial update of the task in the path
func (handler *Handler) TaskUpdate(writer http.ResponseWriter, request *http.Request) {
	patch := TaskPatch{}

	err := json.NewDecoder(request.Body).Decode(&patch)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	handler.update(writer, request, mux.Vars(request)["taskID"], &patch)
}

// TaskUpdateByBody is the older update route that carries the taskId inside the body
func (handler *Handler) TaskUpdateByBody(writer http.ResponseWriter, request *http.Request) {
	body := struct {
		TaskID string `json:"taskId"`
		TaskPatch
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	if body.TaskID == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Must provide taskId", nil)
		return
	}

	handler.update(writer, request, body.TaskID, &body.TaskPatch)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request, taskID string, patch *TaskPatch) {
	identity, _ := auth.IdentityFromContext(request.Context())

	task, err := handler.Service.Update(request.Context(), identity, taskID, patch)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Task couldn't be updated", err)
		return
	}

	handler.ResponseManager.Respond(writer, task)
}

// TaskDelete deletes a task
func (handler *Handler) TaskDelete(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	err := handler.Service.Delete(request.Context(), identity, mux.Vars(request)["taskID"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Task couldn't be deleted", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

// GetAllTasks returns a page of the tasks the caller may see
func (handler *Handler) GetAllTasks(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	pagination, err := communication.ParsePagination(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad pagination", err)
		return
	}

	tasks, count, err := handler.Service.List(request.Context(), identity, pagination.Page, pagination.PageSize)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	handler.ResponseManager.Respond(writer, communication.PaginatedResponse(tasks, count, pagination))
}

// TaskGet returns a single task
func (handler *Handler) TaskGet(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	task, err := handler.Service.Get(request.Context(), identity, mux.Vars(request)["taskID"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Could not find task", err)
		return
	}

	handler.ResponseManager.Respond(writer, task)
}
