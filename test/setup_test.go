//go:build integration_test || all_tests

package test

import (
	"context"
	"errors"

	"github.com/2beens/fittracker/internal"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func (s *IntegrationTestSuite) TestNewServer_TracingSetupFails() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	running := goleak.IgnoreCurrent()

	tracingErr := errors.New("otel exporter misconfigured")
	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:      s.cfg,
		VersionInfo: "test-version-info",
		TracingSetup: func(bool, string, *redis.Client) (func(), error) {
			return nil, tracingErr
		},
	})
	require.ErrorIs(t, err, tracingErr)
	require.Nil(t, server)

	// nothing started by NewServer is left running
	goleak.VerifyNone(t, running)
}
