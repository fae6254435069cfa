// Package core defines the domain model shared across the service:
// threats, the alerts raised against them, and watched identities.
package core

import "time"

// ThreatType classifies how a threat surfaced.
type ThreatType string

const (
	ThreatTypeLeak    ThreatType = "leak"
	ThreatTypeChatter ThreatType = "chatter"
	ThreatTypeBreach  ThreatType = "breach"
	ThreatTypeOther   ThreatType = "other"
)

// ValidThreatTypes lists every accepted threat type, in declaration order.
var ValidThreatTypes = []ThreatType{
	ThreatTypeLeak,
	ThreatTypeChatter,
	ThreatTypeBreach,
	ThreatTypeOther,
}

// Valid reports whether t is one of the known threat types. Matching is
// case sensitive.
func (t ThreatType) Valid() bool {
	switch t {
	case ThreatTypeLeak, ThreatTypeChatter, ThreatTypeBreach, ThreatTypeOther:
		return true
	}
	return false
}

// Threat is a tracked security threat. Its alerts always travel with it;
// deleting the threat deletes them too.
type Threat struct {
	ID           int64      `json:"id"`
	Type         ThreatType `json:"type"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Source       string     `json:"source,omitempty"`
	DiscoveredAt time.Time  `json:"discovered_at"`
	Alerts       []Alert    `json:"alerts"`
}

// Alert is a single notification raised against a threat.
type Alert struct {
	ID        int64     `json:"id"`
	ThreatID  int64     `json:"threat_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WatchedIdentity is an identifier (email, domain, keyword) a user monitors
// for exposure. Rows belong to exactly one user and are removed with them.
type WatchedIdentity struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}
