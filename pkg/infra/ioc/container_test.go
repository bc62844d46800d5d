package ioc_test

import (
	"context"
	"testing"

	container "github.com/golobby/container/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	sessionservices "github.com/leetgaming/ranked-coordinator/pkg/domain/session/services"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"
	validationservices "github.com/leetgaming/ranked-coordinator/pkg/domain/validation/services"

	queueservices "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/services"

	"github.com/leetgaming/ranked-coordinator/pkg/infra/auth"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/ioc"
)

// buildContainer exercises the full ContainerBuilder chain the way
// cmd/coordinator/main.go does. None of InjectPostgres/InjectRedis/
// InjectKafka dial synchronously (pgxpool.New, redis.NewClient and
// kafka.NewClient all defer the network round trip to first use), and
// EnvironmentConfig's defaults are always syntactically valid, so this
// runs without a live Postgres/Redis/Kafka instance.
func buildContainer(t *testing.T) (*ioc.ContainerBuilder, container.Container) {
	t.Helper()

	builder := ioc.NewContainerBuilder().
		WithEnvFile().
		With(ioc.InjectPostgres).
		With(ioc.InjectRedis).
		With(ioc.InjectKafka).
		WithBroadcastProxy().
		WithIdentity().
		WithMatchState().
		WithQueueEngine().
		WithReadyCheck().
		WithLobby().
		WithHostSelector().
		WithValidationEngine().
		WithSessionRouter()

	c := builder.Build()
	return builder, c
}

func TestContainerBuilder_ResolvesPipelineSingletons(t *testing.T) {
	builder, c := buildContainer(t)

	require.NoError(t, builder.Finalize())

	var config common.Config
	require.NoError(t, c.Resolve(&config))
	assert.NotEmpty(t, config.Port)

	var broadcaster transport.Broadcaster
	require.NoError(t, c.Resolve(&broadcaster))
	assert.NotNil(t, broadcaster)

	var tickService *queueservices.TickService
	require.NoError(t, c.Resolve(&tickService))
	assert.NotNil(t, tickService)

	var validationService *validationservices.Service
	require.NoError(t, c.Resolve(&validationService))
	assert.NotNil(t, validationService)

	var router *sessionservices.Router
	require.NoError(t, c.Resolve(&router))
	assert.NotNil(t, router)

	var dispatcher *sessionservices.Dispatcher
	require.NoError(t, c.Resolve(&dispatcher))
	assert.NotNil(t, dispatcher)

	var verifier *auth.Verifier
	require.NoError(t, c.Resolve(&verifier))
	assert.NotNil(t, verifier)
}

func TestContainerBuilder_FinalizeWiresBroadcastProxy(t *testing.T) {
	builder, c := buildContainer(t)

	require.NoError(t, builder.Finalize())

	var broadcaster transport.Broadcaster
	require.NoError(t, c.Resolve(&broadcaster))

	err := broadcaster.Send(context.Background(), common.PlayerID(1), transport.Message{Type: transport.TypeQueueJoined})
	assert.NoError(t, err, "the proxy should forward to the finalized Kafka lifecycle bridge without error")
}
