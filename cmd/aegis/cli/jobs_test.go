package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aegis-auth/aegis/jobs"
)

func TestTriggerPruneJob(t *testing.T) {
	mr := miniredis.RunT(t)

	cli, err := NewJobsCLI(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	info, err := cli.Trigger(context.Background(), jobs.TaskTypePruneAuthEvents)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskTypePruneAuthEvents, info.Type)
	require.Equal(t, jobs.QueueDefault, info.Queue)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	mr := miniredis.RunT(t)

	cli, err := NewJobsCLI(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	_, err = cli.Trigger(context.Background(), "auth:event:unknown")
	require.ErrorContains(t, err, "unsupported job")
}
