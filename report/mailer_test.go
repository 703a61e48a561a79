package report

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"

	"copygen/core"
	"copygen/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.NewLoggerWithCore(zapcore.NewNopCore(), false)
}

func TestMailer_UnconfiguredIsNoOp(t *testing.T) {
	mailer := NewMailer(core.MailConfig{}, testLogger(t))

	if mailer.Configured() {
		t.Error("Configured() = true for empty host")
	}
	if err := mailer.Send(context.Background(), "subject", "body"); err != nil {
		t.Errorf("Send() error = %v, want nil no-op", err)
	}
}

func TestMailer_Configured(t *testing.T) {
	mailer := NewMailer(core.MailConfig{Host: "smtp.example.com"}, testLogger(t))
	if !mailer.Configured() {
		t.Error("Configured() = false with host set")
	}
}

func TestMailer_NoRecipients(t *testing.T) {
	mailer := NewMailer(core.MailConfig{Host: "smtp.example.com", From: "runner@example.com"}, testLogger(t))
	if err := mailer.Send(context.Background(), "subject", "body"); err == nil {
		t.Error("Send() should fail when no recipients are configured")
	}
}
