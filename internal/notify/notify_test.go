package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsImplementation(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		configured bool
	}{
		{name: "empty", cfg: Config{}, configured: false},
		{name: "missing password", cfg: Config{Host: "smtp.example.com", User: "bot"}, configured: false},
		{name: "complete", cfg: Config{Host: "smtp.example.com", User: "bot", Pass: "secret"}, configured: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.cfg, common.Discard())
			assert.Equal(t, tt.configured, n.Configured())
			if tt.configured {
				assert.IsType(t, &SMTPNotifier{}, n)
			} else {
				assert.IsType(t, &NoopNotifier{}, n)
			}
		})
	}
}

func TestNoopNotifier_LogsAndSucceeds(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := New(Config{}, logger)
	err := n.Send(context.Background(), []string{"ops@example.com"}, "Inventory Alert", "body")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SMTP not configured")
}

func TestSMTPNotifier_Defaults(t *testing.T) {
	n := NewSMTPNotifier(Config{Host: "smtp.example.com", User: "bot@example.com", Pass: "x"}, common.Discard())
	assert.Equal(t, DefaultPort, n.cfg.Port)
	assert.Equal(t, "bot@example.com", n.cfg.sender())

	n = NewSMTPNotifier(Config{Host: "h", User: "u", Pass: "p", From: "alerts@example.com", Port: 2525}, common.Discard())
	assert.Equal(t, 2525, n.cfg.Port)
	assert.Equal(t, "alerts@example.com", n.cfg.sender())
}

func TestSMTPNotifier_InvalidRecipient(t *testing.T) {
	n := NewSMTPNotifier(Config{Host: "127.0.0.1", User: "bot@example.com", Pass: "x"}, common.Discard())

	err := n.Send(context.Background(), []string{"not an address"}, "s", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDelivery)
}

func TestSMTPNotifier_UnreachableServer(t *testing.T) {
	n := NewSMTPNotifier(Config{
		Host:    "127.0.0.1",
		Port:    1,
		User:    "bot@example.com",
		Pass:    "x",
		Timeout: time.Second,
	}, common.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := n.Send(ctx, []string{"ops@example.com"}, "Inventory Alert", "body")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDelivery)
}
