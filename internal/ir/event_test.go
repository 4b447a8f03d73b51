package ir

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventID_Valid(t *testing.T) {
	eid, err := ParseEventID("#7:3")
	require.NoError(t, err)
	assert.Equal(t, EventID{Step: "7", Node: 3}, eid)
}

func TestParseEventID_Invalid(t *testing.T) {
	invalid := []struct {
		input string
		desc  string
	}{
		{"7:3", "missing hash prefix"},
		{"#7", "missing node part"},
		{"#7:abc", "non-decimal node"},
		{"", "empty string"},
		{"#", "hash only"},
		{"#:3", "empty step"},
		{"#7:", "empty node"},
		{"#7:03", "padded node"},
		{"#7:-1", "negative node"},
		{"#7a:3", "non-decimal step"},
		{"#123456789012:0", "step text over 11 chars"},
		{"#7:3:4", "extra colon"},
		{"#" + strings.Repeat("1", 300) + ":0", "over length bound"},
	}

	for _, tc := range invalid {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseEventID(tc.input)
			require.Error(t, err)
			assert.Equal(t, fmt.Sprintf("cannot parse eventId %s", tc.input), err.Error())
		})
	}
}

func TestEventID_RoundTrip(t *testing.T) {
	// parse(format(e)) = e for valid event ids.
	for _, eid := range []EventID{
		NewEventID(0, 0),
		NewEventID(7, 3),
		NewEventID(2147483647, 12345),
	} {
		parsed, err := ParseEventID(eid.String())
		require.NoError(t, err)
		assert.Equal(t, eid, parsed)
	}

	// format(parse(s)) = s for accepted strings, including padded steps.
	for _, s := range []string{"#0:0", "#7:3", "#007:3", "#2147483647:99"} {
		eid, err := ParseEventID(s)
		require.NoError(t, err)
		assert.Equal(t, s, eid.String())
	}
}

func TestStepID_Text(t *testing.T) {
	assert.Equal(t, "0", StepID(0).Text())
	assert.Equal(t, "42", StepID(42).Text())
	// The counter is int32-bounded, so the text never exceeds 11 characters.
	assert.LessOrEqual(t, len(StepID(2147483647).Text()), 11)
}
