package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var cfg struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3s","b":1000000000}`), &cfg))
	require.Equal(t, 3*time.Second, cfg.A.Duration)
	require.Equal(t, time.Second, cfg.B.Duration)
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 90 * time.Second})
	require.NoError(t, err)
	require.Equal(t, `"1m30s"`, string(b))
}

func TestHumanSince(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "never", HumanSince(time.Time{}, now))
	require.Equal(t, "just now", HumanSince(now.Add(-10*time.Second), now))
	require.Equal(t, "5 min ago", HumanSince(now.Add(-5*time.Minute), now))
	require.Equal(t, "3 h ago", HumanSince(now.Add(-3*time.Hour), now))

	old := now.Add(-72 * time.Hour)
	require.Equal(t, old.Local().Format(time.DateTime), HumanSince(old, now))
}
