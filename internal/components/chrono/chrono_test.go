package chrono

import (
	"context"
	"testing"
	"time"

	"mediahub/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardSleep(t *testing.T) {
	clock := StandardImpl{}

	start := time.Now()
	err := clock.Sleep(context.Background(), 20*time.Millisecond)
	require.Nil(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = clock.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStandardCron(t *testing.T) {
	tel := telemetry.NewTestingAPI()
	cron := NewStandardCron(tel)

	fired := make(chan struct{}, 1)
	err := cron.Cron("@every 1s", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.Nil(t, err)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cron callback never fired")
	}
	<-cron.Stop().Done()

	require.NotNil(t, cron.Cron("not a schedule", func() {}))
}
