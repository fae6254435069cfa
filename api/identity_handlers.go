package api

import (
	"context"
	"net/http"

	"shadowagent/core"
)

// identityPayload is the create-schema for watched identities.
type identityPayload struct {
	Identifier string `json:"identifier" validate:"required"`
	Type       string `json:"type" validate:"required"`
}

// listMyIdentities godoc
//
//	@Summary	List the authenticated user's watched identities
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		core.WatchedIdentity
//	@Failure	401	{object}	map[string]string
//	@Router		/users/me/identities [get]
func (a *API) listMyIdentities(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	skip, limit := parseListParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	identities, err := a.identityStorage.ListIdentitiesByUser(ctx, user.ID, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list identities", err, a.logger)
		return
	}

	a.respondJSON(w, identities, http.StatusOK)
}

// createMyIdentity godoc
//
//	@Summary	Register a watched identity for the authenticated user
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Success	201	{object}	core.WatchedIdentity
//	@Failure	401	{object}	map[string]string
//	@Failure	422	{object}	map[string]string
//	@Router		/users/me/identities [post]
func (a *API) createMyIdentity(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}

	var req identityPayload
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid identity payload", err, a.logger)
		return
	}

	identity := &core.WatchedIdentity{
		Identifier: req.Identifier,
		Type:       req.Type,
		UserID:     user.ID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	if err := a.identityStorage.CreateIdentity(ctx, identity); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create identity", err, a.logger)
		return
	}

	a.logger.Infow("Watched identity created",
		"identity_id", identity.ID,
		"user_id", user.ID,
		"type", sanitizeLogMessage(identity.Type))

	a.respondJSON(w, identity, http.StatusCreated)
}
