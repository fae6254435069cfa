package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreatTypeValid(t *testing.T) {
	for _, tt := range ValidThreatTypes {
		assert.True(t, tt.Valid(), "expected %q to be valid", tt)
	}

	assert.False(t, ThreatType("").Valid())
	assert.False(t, ThreatType("malware").Valid())
	assert.False(t, ThreatType("LEAK").Valid(), "threat types are case sensitive")
}

func TestThreatJSONOmitsEmptyOptionalFields(t *testing.T) {
	threat := Threat{
		ID:    1,
		Type:  ThreatTypeLeak,
		Title: "credential dump",
	}

	data, err := json.Marshal(threat)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.NotContains(t, decoded, "description")
	assert.NotContains(t, decoded, "source")
	assert.Equal(t, "leak", decoded["type"])
}
