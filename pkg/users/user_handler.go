package users

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth/jwt"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/storage"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Handler is the handler for user API calls
type Handler struct {
	UserRepository  UserRepositoryInterface
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
	Storage         storage.Storage
	Secret          string
	TokenTTL        time.Duration
	Observers       []ChangeObserver
}

type userForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserRegister creates an account. Only user managers may register others, the very first account is open.
func (handler *Handler) UserRegister(writer http.ResponseWriter, request *http.Request) {
	form, image, err := readUserForm(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	count, err := handler.UserRepository.Count(request.Context())
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not count users", err)
		return
	}

	if count > 0 {
		identity, ok := auth.IdentityFromContext(request.Context())
		if !ok {
			handler.ResponseManager.RespondWithError(writer, http.StatusUnauthorized,
				"No authorization", communication.ErrUnauthenticated)
			return
		}

		if !identity.Can(policy.ActionUserManage, false) {
			handler.ResponseManager.RespondWithError(writer, http.StatusForbidden,
				"Access denied for role "+identity.Role.String(), communication.ErrForbidden)
			return
		}
	}

	role, err := policy.ParseRole(form.Role)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Invalid role", errors.Wrap(communication.ErrValidation, err.Error()))
		return
	}

	if strings.TrimSpace(form.Password) == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Password is required", communication.ErrValidation)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem hashing password", err)
		return
	}

	user := User{
		Username: strings.TrimSpace(form.Username),
		Role:     role,
		Password: string(hashedPassword),
	}

	v := validator.New()
	err = v.Struct(user)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	if image != nil {
		user.ProfileImage, err = handler.saveProfileImage(request.Context(), image)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
				"Could not store profile image", err)
			return
		}
	}

	err = handler.UserRepository.Add(request.Context(), &user)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"User couldn't be persisted in the database", err)
		return
	}

	handler.publishChange()

	handler.ResponseManager.RespondWithStatus(writer, &user, http.StatusCreated)
}

// UserLogin is the route for user authentication
func (handler *Handler) UserLogin(writer http.ResponseWriter, request *http.Request) {
	userLogin := UserLogin{}
	err := json.NewDecoder(request.Body).Decode(&userLogin)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Wrong format", err)
		return
	}

	v := validator.New()
	err = v.Struct(userLogin)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	user, err := handler.UserRepository.FindByUsername(request.Context(), userLogin.Username)
	if err != nil {
		if errors.Is(err, communication.ErrNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				"Wrong credentials", nil)
			return
		}
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not look up user", err)
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(userLogin.Password))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Wrong credentials", nil)
		return
	}

	token, err := jwt.Sign(handler.Secret, jwt.New(user.ID.Hex(), user.Role.String(), handler.TokenTTL))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem signing token", err)
		return
	}

	handler.ResponseManager.Respond(writer, map[string]interface{}{
		"token": token,
		"role":  user.Role,
		"user":  user,
	})
}

// UserList returns a page of all users without their credentials
func (handler *Handler) UserList(writer http.ResponseWriter, request *http.Request) {
	pagination, err := communication.ParsePagination(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Bad pagination", err)
		return
	}

	users, count, err := handler.UserRepository.FindAll(request.Context(), pagination.Page, pagination.PageSize)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	handler.ResponseManager.Respond(writer, communication.PaginatedResponse(users, count, pagination))
}

// UserGet retrieves the calling user
func (handler *Handler) UserGet(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())

	user, err := handler.UserRepository.FindByID(request.Context(), identity.SubjectID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	handler.ResponseManager.Respond(writer, user)
}

// UserUpdate changes username, role, password or image of any user, only user managers may do so
func (handler *Handler) UserUpdate(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())
	userID := mux.Vars(request)["userID"]

	if !identity.Can(policy.ActionUserManage, false) {
		handler.ResponseManager.RespondWithError(writer, http.StatusForbidden,
			"Access denied for role "+identity.Role.String(), communication.ErrForbidden)
		return
	}

	form, image, err := readUserForm(request)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	user, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	if username := strings.TrimSpace(form.Username); username != "" {
		user.Username = username
	}

	if strings.TrimSpace(form.Role) != "" {
		role, err := policy.ParseRole(form.Role)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				"Invalid role", errors.Wrap(communication.ErrValidation, err.Error()))
			return
		}

		user.Role = role
	}

	if strings.TrimSpace(form.Password) != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
				"Problem hashing password", err)
			return
		}
		user.Password = string(hashedPassword)
	}

	v := validator.New()
	err = v.Struct(user)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	if image != nil {
		user.ProfileImage, err = handler.saveProfileImage(request.Context(), image)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
				"Could not store profile image", err)
			return
		}
	}

	err = handler.UserRepository.Update(request.Context(), user)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not update user", err)
		return
	}

	handler.publishChange()

	handler.ResponseManager.Respond(writer, user)
}

// UserDelete removes a user
func (handler *Handler) UserDelete(writer http.ResponseWriter, request *http.Request) {
	identity, _ := auth.IdentityFromContext(request.Context())
	if !identity.Can(policy.ActionUserManage, false) {
		handler.ResponseManager.RespondWithError(writer, http.StatusForbidden,
			"Access denied for role "+identity.Role.String(), communication.ErrForbidden)
		return
	}

	err := handler.UserRepository.Remove(request.Context(), mux.Vars(request)["userID"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not delete user", err)
		return
	}

	handler.publishChange()

	handler.ResponseManager.RespondWithNoContent(writer)
}

func (handler *Handler) publishChange() {
	for _, observer := range handler.Observers {
		observer.UsersChanged()
	}
}

func (handler *Handler) saveProfileImage(ctx context.Context, image *multipart.FileHeader) (string, error) {
	contentType := image.Header.Get("Content-Type")

	err := storage.ValidateImage(image.Filename, contentType, image.Size)
	if err != nil {
		return "", err
	}

	file, err := image.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	return handler.Storage.Save(ctx, storage.UniqueName("profileImage", image.Filename), contentType, file)
}

// readUserForm accepts multipart forms carrying an optional profileImage as well as plain JSON
func readUserForm(request *http.Request) (userForm, *multipart.FileHeader, error) {
	form := userForm{}

	if !strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data") {
		err := json.NewDecoder(request.Body).Decode(&form)
		if err != nil {
			return form, nil, errors.Wrap(communication.ErrValidation, err.Error())
		}
		return form, nil, nil
	}

	err := request.ParseMultipartForm(storage.MaxImageSize + 1<<20)
	if err != nil {
		return form, nil, errors.Wrap(communication.ErrValidation, err.Error())
	}

	form.Username = request.FormValue("username")
	form.Password = request.FormValue("password")
	form.Role = request.FormValue("role")

	files := request.MultipartForm.File["profileImage"]
	if len(files) == 0 {
		return form, nil, nil
	}

	return form, files[0], nil
}
