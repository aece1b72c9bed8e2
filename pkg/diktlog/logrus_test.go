package diktlog

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogrusLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	l := &LogrusLogger{entry: logrus.NewEntry(base)}

	l.Info("segment appended", "segmentID", "abc123", "sampleCount", 512)

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte(`"segmentID":"abc123"`)) {
		t.Fatalf("expected segmentID field in log output, got: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte(`"sampleCount":512`)) {
		t.Fatalf("expected sampleCount field in log output, got: %s", out)
	}
}

func TestLogrusLoggerOddArgsFallsBackToExtra(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	l := &LogrusLogger{entry: logrus.NewEntry(base)}

	l.Warn("odd args", "onlyKey")

	if !bytes.Contains(buf.Bytes(), []byte(`"extra":"onlyKey"`)) {
		t.Fatalf("expected extra field for dangling arg, got: %s", buf.String())
	}
}

func TestNoOpLoggerDoesNothing(t *testing.T) {
	var l Logger = &NoOpLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
