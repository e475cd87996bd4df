package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,always=100%,never=0%,clamped=250%,canary=25%")

	tests := []struct {
		flag   string
		userID uint
		want   bool
	}{
		{"a", 1, true},
		{"c", 1, true},
		{"e", 1, true},
		{"A", 0, true},
		{"b", 1, false},
		{"d", 1, false},
		{"f", 1, false},
		{"always", 0, true},
		{"clamped", 1, true},
		{"never", 1, false},
		{"canary", 0, false},
		{"missing", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Enabled(tt.flag, tt.userID))
		})
	}
}

func TestEnabled_RolloutIsStablePerUser(t *testing.T) {
	m := NewManager("canary=25%")

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		first := m.Enabled("canary", id)
		assert.Equal(t, first, m.Enabled("CANARY", id))
		if first {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 60)
}

func TestRawAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,view_count_readback=on, new_ranking = 20% ,z=off,w=maybe ")

	assert.Equal(t, map[string]string{
		ViewCountReadback: "on",
		"new_ranking":     "20%",
		"z":               "off",
	}, m.Raw())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3)
	assert.True(t, snap[ViewCountReadback])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(ViewCountReadback, 1))
}
