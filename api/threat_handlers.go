package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"shadowagent/core"
	"shadowagent/metrics"
	"shadowagent/storage"
)

// alertPayload is the create-schema for alerts, both standalone and nested
// inside a threat.
type alertPayload struct {
	Severity string `json:"severity" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// threatPayload is the create-schema for threats. Nested alerts are created
// atomically with the threat.
type threatPayload struct {
	Type        string         `json:"type" validate:"required,oneof=leak chatter breach other"`
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	Alerts      []alertPayload `json:"alerts" validate:"dive"`
}

// listThreats godoc
//
//	@Summary	List threats
//	@Produce	json
//	@Param		skip	query		int	false	"Rows to skip"
//	@Param		limit	query		int	false	"Page size"
//	@Success	200		{array}		core.Threat
//	@Router		/threats [get]
func (a *API) listThreats(w http.ResponseWriter, r *http.Request) {
	skip, limit := parseListParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	threats, err := a.threatStorage.ListThreats(ctx, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list threats", err, a.logger)
		return
	}

	a.respondJSON(w, threats, http.StatusOK)
}

// createThreat godoc
//
//	@Summary	Create a threat, optionally with nested alerts
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	core.Threat
//	@Failure	422	{object}	map[string]string
//	@Router		/threats [post]
func (a *API) createThreat(w http.ResponseWriter, r *http.Request) {
	var req threatPayload
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid threat payload", err, a.logger)
		return
	}

	threat := &core.Threat{
		Type:        core.ThreatType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Source:      req.Source,
	}
	for _, alert := range req.Alerts {
		threat.Alerts = append(threat.Alerts, core.Alert{
			Severity: alert.Severity,
			Message:  alert.Message,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	if err := a.threatStorage.CreateThreat(ctx, threat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create threat", err, a.logger)
		return
	}

	metrics.ThreatsCreated.WithLabelValues(string(threat.Type)).Inc()
	metrics.AlertsCreated.Add(float64(len(threat.Alerts)))

	a.logger.Infow("Threat created",
		"threat_id", threat.ID,
		"type", threat.Type,
		"alerts", len(threat.Alerts))

	a.respondJSON(w, threat, http.StatusCreated)
}

// getThreat godoc
//
//	@Summary	Fetch a single threat with its alerts
//	@Produce	json
//	@Param		id	path		int	true	"Threat ID"
//	@Success	200	{object}	core.Threat
//	@Failure	404	{object}	map[string]string
//	@Router		/threats/{id} [get]
func (a *API) getThreat(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	threat, err := a.threatStorage.GetThreat(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrThreatNotFound) {
			writeError(w, http.StatusNotFound, "Threat not found", nil, a.logger)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to get threat", err, a.logger)
		}
		return
	}

	a.respondJSON(w, threat, http.StatusOK)
}

// deleteThreat godoc
//
//	@Summary	Delete a threat and its alerts
//	@Produce	json
//	@Param		id	path		int	true	"Threat ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/threats/{id} [delete]
func (a *API) deleteThreat(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	if err := a.threatStorage.DeleteThreat(ctx, id); err != nil {
		if errors.Is(err, storage.ErrThreatNotFound) {
			writeError(w, http.StatusNotFound, "Threat not found", nil, a.logger)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to delete threat", err, a.logger)
		}
		return
	}

	a.logger.Infow("Threat deleted", "threat_id", id)
	a.respondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

// createAlert godoc
//
//	@Summary	Attach an alert to an existing threat
//	@Accept		json
//	@Produce	json
//	@Param		id	path		int	true	"Threat ID"
//	@Success	201	{object}	core.Alert
//	@Failure	404	{object}	map[string]string
//	@Router		/threats/{id}/alerts [post]
func (a *API) createAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	var req alertPayload
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid alert payload", err, a.logger)
		return
	}

	alert := &core.Alert{
		Severity: req.Severity,
		Message:  req.Message,
	}

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	if err := a.threatStorage.CreateAlert(ctx, id, alert); err != nil {
		if errors.Is(err, storage.ErrThreatNotFound) {
			writeError(w, http.StatusNotFound, "Threat not found", nil, a.logger)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to create alert", err, a.logger)
		}
		return
	}

	metrics.AlertsCreated.Inc()

	a.logger.Infow("Alert created", "alert_id", alert.ID, "threat_id", id)
	a.respondJSON(w, alert, http.StatusCreated)
}

// listAlerts godoc
//
//	@Summary	List alerts across all threats
//	@Produce	json
//	@Param		skip	query		int	false	"Rows to skip"
//	@Param		limit	query		int	false	"Page size"
//	@Success	200		{array}		core.Alert
//	@Router		/alerts [get]
func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	skip, limit := parseListParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), core.DBTimeout)
	defer cancel()

	alerts, err := a.threatStorage.ListAlerts(ctx, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err, a.logger)
		return
	}

	a.respondJSON(w, alerts, http.StatusOK)
}

// pathID parses the {id} path variable. The second return is false when the
// response has already been written.
func (a *API) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid ID", err, a.logger)
		return 0, false
	}
	return id, true
}
