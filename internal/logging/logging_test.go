package logging_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/logging"
)

func TestLevel(t *testing.T) {
	testCases := []struct {
		debug    bool
		verbose  bool
		expected logrus.Level
	}{
		{false, false, logrus.WarnLevel},
		{false, true, logrus.InfoLevel},
		{true, false, logrus.DebugLevel},
		{true, true, logrus.DebugLevel},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if actual := logging.Level(tC.debug, tC.verbose); tC.expected != actual {
				t.Errorf("expected %v, got %v", tC.expected, actual)
			}
		})
	}
}

func TestComponentPrefix(t *testing.T) {
	b := &bytes.Buffer{}
	l := logging.New(logrus.InfoLevel, b)
	logging.Component(l, "pipeline").Info("hello")
	logging.Component(l, "pipeline").Debug("hidden")

	s := b.String()
	if !strings.Contains(s, "pipeline") || !strings.Contains(s, "hello") {
		t.Errorf("expected prefixed line, got %q", s)
	}
	if strings.Contains(s, "hidden") {
		t.Errorf("expected debug to be filtered, got %q", s)
	}
}
