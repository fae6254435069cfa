package api

import (
	"context"
	"errors"
	"net/http"

	"shadowagent/core"
	"shadowagent/metrics"
	"shadowagent/storage"
)

// signupRequest is the create-schema for user accounts. The password is
// write-only: it exists here and nowhere in any response payload.
type signupRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// signup godoc
//
//	@Summary	Register a new user
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	storage.User
//	@Failure	400	{object}	map[string]string	"Username or email already registered"
//	@Router		/signup [post]
func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid signup payload", err, a.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	user := &storage.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	if err := a.userStorage.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "Username already registered", nil, a.logger)
		case errors.Is(err, storage.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "Email already registered", nil, a.logger)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to create user", err, a.logger)
		}
		return
	}

	metrics.UsersRegistered.Inc()

	a.logger.Infow("AUDIT: User signup",
		"action", "signup",
		"outcome", "success",
		"username", sanitizeLogMessage(user.Username))

	// Password holds the bcrypt hash at this point; json:"-" keeps it out
	// of the payload but clear it anyway.
	user.Password = ""
	a.respondJSON(w, user, http.StatusOK)
}

// tokenResponse is the login success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// login godoc
//
//	@Summary	Authenticate and issue a bearer token
//	@Accept		x-www-form-urlencoded
//	@Produce	json
//	@Success	200	{object}	tokenResponse
//	@Failure	401	{object}	map[string]string	"Incorrect username or password"
//	@Router		/login [post]
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body", err, a.logger)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	user, err := a.userStorage.ValidateCredentials(ctx, username, password)
	if err != nil {
		// Identical response for unknown user and wrong password.
		a.logger.Infow("AUDIT: Login attempt failed",
			"action", "login",
			"outcome", "failure",
			"username", sanitizeLogMessage(username))
		a.loginUnauthorized(w)
		return
	}

	token, err := generateToken(user.Username, a.config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token", err, a.logger)
		return
	}

	a.logger.Infow("AUDIT: User login successful",
		"action", "login",
		"outcome", "success",
		"username", user.Username)

	a.respondJSON(w, tokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
}

// loginUnauthorized is the single 401 shape for failed logins, with the
// bearer challenge marker.
func (a *API) loginUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	a.respondJSON(w, map[string]string{"detail": "Incorrect username or password"}, http.StatusUnauthorized)
}

// getCurrentUser godoc
//
//	@Summary	Return the authenticated user
//	@Produce	json
//	@Success	200	{object}	storage.User
//	@Failure	401	{object}	map[string]string
//	@Router		/users/me [get]
func (a *API) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	user.Password = ""
	a.respondJSON(w, user, http.StatusOK)
}

// currentUser loads the user resolved by the auth middleware. The second
// return is false when the response has already been written.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) (*storage.User, bool) {
	username := usernameFromContext(r.Context())
	if username == "" {
		a.unauthorized(w)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	user, err := a.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			a.unauthorized(w)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to get user", err, a.logger)
		}
		return nil, false
	}

	return user, true
}
