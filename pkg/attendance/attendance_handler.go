package attendance

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
)

// Handler handles the attendance API calls
type Handler struct {
	Service         *Service
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
}

// AttendanceMark checks the caller in for today, the body may carry a status
func (handler *Handler) AttendanceMark(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	body := struct {
		Status Status `json:"status"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil && err != io.EOF {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	record, err := handler.Service.MarkPresent(request.Context(), identity, body.Status)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not mark attendance", err)
		return
	}

	handler.ResponseManager.RespondWithStatus(writer, record, http.StatusCreated)
}

// AttendanceList returns a page of the attendance records the caller may see
func (handler *Handler) AttendanceList(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	pagination, err := communication.ParsePagination(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad pagination", err)
		return
	}

	records, count, err := handler.Service.List(request.Context(), identity, pagination.Page, pagination.PageSize)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	handler.ResponseManager.Respond(writer, communication.PaginatedResponse(records, count, pagination))
}
