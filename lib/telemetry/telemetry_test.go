package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test", Config{})
	require.Nil(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.Nil(t, tel.Shutdown(context.Background()))
}

func TestSetupFromEnvWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.Nil(t, err)
	require.Nil(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	tel, err := SetupFromEnv(context.Background(), "test")
	require.Nil(t, err)
	require.Nil(t, tel.TracerProvider)

	err = os.WriteFile(filepath.Join(dir, "telemetry.json5"), []byte(`{ otlp: { traces: {} } }`), 0644)
	require.Nil(t, err)
	tel, err = SetupFromEnv(context.Background(), "test")
	require.Nil(t, err)
	require.Nil(t, tel.TracerProvider)
}

func TestConnTransport(t *testing.T) {
	kind, endpoint := OtlpConnConfig{HttpEndpoint: "http://h", GrpcEndpoint: "http://g"}.transport()
	require.Equal(t, "grpc", kind)
	require.Equal(t, "http://g", endpoint)

	kind, endpoint = OtlpConnConfig{HttpEndpoint: "http://h"}.transport()
	require.Equal(t, "http", kind)
	require.Equal(t, "http://h", endpoint)
	require.False(t, OtlpConnConfig{}.enabled())
}

func TestNewLoggerLevel(t *testing.T) {
	var out bytes.Buffer
	NewLogger(&out, false).Debug("hidden")
	require.Empty(t, out.String())

	NewLogger(&out, true).Debug("shown")
	require.Contains(t, out.String(), "shown")
}
