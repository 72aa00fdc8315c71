package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWith(t *testing.T) {
	tests := []struct {
		level, format string
		wantLevel     logrus.Level
		text          bool
	}{
		{"", "", logrus.InfoLevel, false},
		{"DEBUG", "text", logrus.DebugLevel, true},
		{"warning", "json", logrus.WarnLevel, false},
		{"error", "", logrus.ErrorLevel, false},
		{"trace", "", logrus.TraceLevel, false},
	}
	for _, tc := range tests {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			l := NewWith(tc.level, tc.format)
			assert.Equal(t, tc.wantLevel, l.GetLevel())
			_, isText := l.Formatter.(*logrus.TextFormatter)
			assert.Equal(t, tc.text, isText)
		})
	}
}
