package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		dev     bool
		wantErr bool
	}{
		{name: "production default level", level: "", dev: false},
		{name: "development debug", level: "debug", dev: true},
		{name: "upper case level", level: "WARN", dev: false},
		{name: "garbage level", level: "loud", dev: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.dev)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func Test_parseLevel(t *testing.T) {
	lvl, err := parseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zap.ErrorLevel, lvl)
}

func Test_toZapFields(t *testing.T) {
	l := &developmentLogger{}

	fields := l.toZapFields("order_id", "T1", "attempt", 2, "dangling")
	require.Len(t, fields, 3)
	assert.Equal(t, "order_id", fields[0].Key)
	assert.Equal(t, "attempt", fields[1].Key)
	assert.Equal(t, "dangling_key", fields[2].Key)
}
