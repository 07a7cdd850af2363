package main

import (
	"context"
	"io"
	"testing"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_NoCommand(t *testing.T) {
	err := run(context.Background(), nil, io.Discard)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseAdminFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		role    string
	}{
		{"defaults role", []string{"-email", "ops@example.com", "-password", "long-enough-pw", "-name", "Ops"}, false, "admin"},
		{"explicit role", []string{"-email", "root@example.com", "-password", "long-enough-pw", "-name", "Root", "-role", "super_admin"}, false, "super_admin"},
		{"missing password", []string{"-email", "ops@example.com", "-name", "Ops"}, true, ""},
		{"unknown flag", []string{"-mail", "ops@example.com"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseAdminFlags(tt.args, io.Discard)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, req.Role)
		})
	}
}

func TestMigrateCmd_Usage(t *testing.T) {
	cfg := &config.Config{}
	logger := zerolog.Nop()

	tests := []struct {
		name string
		args []string
	}{
		{"no direction", nil},
		{"unknown direction", []string{"sideways"}},
		{"zero steps", []string{"down", "-steps", "0"}},
		{"bad steps", []string{"down", "-steps", "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := migrateCmd(cfg, tt.args, io.Discard, logger)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}
