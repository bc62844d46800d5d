package ioc

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	container "github.com/golobby/container/v3"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"

	hostout "github.com/leetgaming/ranked-coordinator/pkg/domain/host/ports/out"
	hostservices "github.com/leetgaming/ranked-coordinator/pkg/domain/host/services"

	lobbyentities "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/entities"
	lobbyout "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/ports/out"
	lobbyservices "github.com/leetgaming/ranked-coordinator/pkg/domain/lobby/services"

	matchstate "github.com/leetgaming/ranked-coordinator/pkg/domain/matchstate"

	matchout "github.com/leetgaming/ranked-coordinator/pkg/domain/match/ports/out"

	queueout "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/ports/out"
	queueservices "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/services"
	queueusecases "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/usecases"

	readycheckout "github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/ports/out"
	readycheckservices "github.com/leetgaming/ranked-coordinator/pkg/domain/readycheck/services"

	sessionout "github.com/leetgaming/ranked-coordinator/pkg/domain/session/ports/out"
	sessionservices "github.com/leetgaming/ranked-coordinator/pkg/domain/session/services"

	"github.com/leetgaming/ranked-coordinator/pkg/domain/transport"

	validationout "github.com/leetgaming/ranked-coordinator/pkg/domain/validation/ports/out"
	validationservices "github.com/leetgaming/ranked-coordinator/pkg/domain/validation/services"

	"github.com/leetgaming/ranked-coordinator/pkg/infra/auth"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/db/postgres"
	hostinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/host"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/identity"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/kafka"
	lobbyinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/lobby"
	matchstateinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/matchstate"
	queueinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/queue"
	readycheckinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/readycheck"
	sessioninfra "github.com/leetgaming/ranked-coordinator/pkg/infra/session"
	"github.com/leetgaming/ranked-coordinator/pkg/infra/statestore"
	validationinfra "github.com/leetgaming/ranked-coordinator/pkg/infra/validation"
)

// ContainerBuilder wires every pipeline stage's concrete adapters behind
// its narrow ports, grounded on the teacher's golobby/container/v3 fluent
// builder (WithEnvFile/With(injector)/Build chain), but registering this
// domain's five pipeline stages plus the Session Router instead of the
// replay/steam/iam use cases the teacher resolves.
type ContainerBuilder struct {
	Container container.Container
}

func NewContainerBuilder() *ContainerBuilder {
	c := container.New()

	b := &ContainerBuilder{c}

	if err := c.Singleton(func() container.Container { return b.Container }); err != nil {
		slog.Error("Failed to register *container.Container in NewContainerBuilder.")
		panic(err)
	}

	if err := c.Singleton(func() *ContainerBuilder { return b }); err != nil {
		slog.Error("Failed to register *ContainerBuilder in NewContainerBuilder.")
		panic(err)
	}

	return b
}

func (b *ContainerBuilder) Build() container.Container {
	return b.Container
}

// With registers an arbitrary resolver, same escape hatch the teacher
// exposes for one-off singletons that don't warrant their own builder
// method.
func (b *ContainerBuilder) With(resolver interface{}) *ContainerBuilder {
	if err := b.Container.Singleton(resolver); err != nil {
		slog.Error("Failed to register resolver.", "err", err)
		panic(err)
	}
	return b
}

// WithEnvFile loads a .env file in development and registers the
// resolved common.Config singleton every other stage reads from.
func (b *ContainerBuilder) WithEnvFile() *ContainerBuilder {
	if os.Getenv("DEV_ENV") == "true" {
		if err := godotenv.Load(); err != nil {
			slog.Error("Failed to load .env file")
			panic(err)
		}
	}

	err := b.Container.Singleton(func() (common.Config, error) {
		return EnvironmentConfig()
	})

	if err != nil {
		slog.Error("Failed to load EnvironmentConfig.")
		panic(err)
	}

	return b
}

// InjectPostgres connects the relational store and registers the single
// MatchRepository instance under each of the narrow ports it satisfies
// (spec §9's interface-segregation style: one adapter, several small
// consumer-owned interfaces, rather than one fat repository port).
func InjectPostgres(c container.Container) error {
	err := c.Singleton(func() (*pgxpool.Pool, error) {
		var config common.Config
		if err := c.Resolve(&config); err != nil {
			slog.Error("Failed to resolve config for *pgxpool.Pool.", "err", err)
			return nil, err
		}

		pool, err := pgxpool.New(context.Background(), config.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect *pgxpool.Pool.", "err", err)
			return nil, err
		}

		return pool, nil
	})
	if err != nil {
		slog.Error("Failed to load *pgxpool.Pool.")
		return err
	}

	err = c.Singleton(func() (*postgres.MatchRepository, error) {
		var pool *pgxpool.Pool
		if err := c.Resolve(&pool); err != nil {
			slog.Error("Failed to resolve *pgxpool.Pool for *postgres.MatchRepository.", "err", err)
			return nil, err
		}
		return postgres.NewMatchRepository(pool), nil
	})
	if err != nil {
		slog.Error("Failed to load *postgres.MatchRepository.")
		return err
	}

	if err := c.Singleton(func() (matchout.HostAssignments, error) {
		var repo *postgres.MatchRepository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load matchout.HostAssignments.", "err", err)
		return err
	}

	if err := c.Singleton(func() (matchout.Reader, error) {
		var repo *postgres.MatchRepository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load matchout.Reader.", "err", err)
		return err
	}

	if err := c.Singleton(func() (matchout.Writer, error) {
		var repo *postgres.MatchRepository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load matchout.Writer.", "err", err)
		return err
	}

	if err := c.Singleton(func() (matchout.Settler, error) {
		var repo *postgres.MatchRepository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load matchout.Settler.", "err", err)
		return err
	}

	return nil
}

// InjectRedis registers the statestore.Store singleton every pipeline
// stage's infra repository is built over.
func InjectRedis(c container.Container) error {
	err := c.Singleton(func() (statestore.Store, error) {
		var config common.Config
		if err := c.Resolve(&config); err != nil {
			slog.Error("Failed to resolve config for statestore.Store.", "err", err)
			return nil, err
		}

		client, err := statestore.NewRedisClient(config.RedisURL)
		if err != nil {
			slog.Error("Failed to connect redis client.", "err", err)
			return nil, err
		}

		return statestore.NewRedisStore(client), nil
	})
	if err != nil {
		slog.Error("Failed to load statestore.Store.")
	}
	return err
}

// InjectKafka registers the outbound Kafka event publisher. A blank
// KAFKA_BOOTSTRAP_SERVERS keeps the publisher wired against a nil client,
// which EventPublisher.publish already treats as a no-op, so the same
// wiring runs in a local dev environment with no broker configured.
func InjectKafka(c container.Container) error {
	err := c.Singleton(func() (*kafka.EventPublisher, error) {
		var config common.Config
		if err := c.Resolve(&config); err != nil {
			slog.Error("Failed to resolve config for kafka.EventPublisher.", "err", err)
			return nil, err
		}

		if config.Kafka.Brokers == "" {
			return kafka.NewEventPublisher(nil), nil
		}

		client, err := kafka.NewClient(kafka.NewConfigFromEnv())
		if err != nil {
			slog.Error("Failed to connect kafka client.", "err", err)
			return nil, err
		}

		return kafka.NewEventPublisher(client), nil
	})
	if err != nil {
		slog.Error("Failed to load *kafka.EventPublisher.")
	}
	return err
}

// broadcastProxy breaks the one genuine construction cycle in this graph:
// the Session Router needs the Ready Check Coordinator (disconnect
// cascade), and the Coordinator/Lobby/Host/Validation services all need a
// transport.Broadcaster that is the Kafka-wrapped Router. Every
// broadcast-consuming service is handed this proxy at construction time;
// Finalize fills in its target once the Router and the Kafka bridge both
// exist. No library in the retrieval pack resolves DI cycles, so this is
// the one stdlib-only construct in the wiring layer.
type broadcastProxy struct {
	target transport.Broadcaster
}

func (p *broadcastProxy) Send(ctx context.Context, player common.PlayerID, msg transport.Message) error {
	return p.target.Send(ctx, player, msg)
}

func (p *broadcastProxy) SendAll(ctx context.Context, players []common.PlayerID, msg transport.Message) error {
	return p.target.SendAll(ctx, players, msg)
}

// WithBroadcastProxy registers the indirection described above. Every
// later With* method resolves transport.Broadcaster and gets this same
// instance; nothing can actually send through it until Finalize runs.
func (b *ContainerBuilder) WithBroadcastProxy() *ContainerBuilder {
	proxy := &broadcastProxy{}

	if err := b.Container.Singleton(func() (*broadcastProxy, error) { return proxy, nil }); err != nil {
		slog.Error("Failed to load *broadcastProxy.", "err", err)
		panic(err)
	}
	if err := b.Container.Singleton(func() (transport.Broadcaster, error) { return proxy, nil }); err != nil {
		slog.Error("Failed to load transport.Broadcaster.", "err", err)
		panic(err)
	}

	return b
}

// WithIdentity registers the Queue Engine's PlayerDirectory boundary
// stub (spec §1 keeps the real identity service outside this core).
func (b *ContainerBuilder) WithIdentity() *ContainerBuilder {
	err := b.Container.Singleton(func() (queueout.PlayerDirectory, error) {
		return identity.NewDirectoryStub(), nil
	})
	if err != nil {
		slog.Error("Failed to load queueout.PlayerDirectory.", "err", err)
		panic(err)
	}
	return b
}

// WithQueueEngine registers the queue repository, the match id
// generator, the Admit/Remove use cases and the matchmaking tick loop.
// The tick loop's CohortSink dependency is registered by
// WithReadyCheck, resolved lazily when the tick service is first built.
func (b *ContainerBuilder) WithQueueEngine() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (queueout.Repository, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return queueinfra.NewRepository(store), err
	}); err != nil {
		slog.Error("Failed to load queueout.Repository.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*queueservices.MatchIDGenerator, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return queueservices.NewMatchIDGenerator(store), err
	}); err != nil {
		slog.Error("Failed to load *queueservices.MatchIDGenerator.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*queueusecases.AdmitUseCase, error) {
		var repo queueout.Repository
		if err := c.Resolve(&repo); err != nil {
			return nil, err
		}
		var directory queueout.PlayerDirectory
		if err := c.Resolve(&directory); err != nil {
			return nil, err
		}
		return queueusecases.NewAdmitUseCase(repo, directory, queueservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *queueusecases.AdmitUseCase.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*queueusecases.RemoveUseCase, error) {
		var repo queueout.Repository
		err := c.Resolve(&repo)
		return queueusecases.NewRemoveUseCase(repo), err
	}); err != nil {
		slog.Error("Failed to load *queueusecases.RemoveUseCase.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*queueservices.TickService, error) {
		var repo queueout.Repository
		if err := c.Resolve(&repo); err != nil {
			return nil, err
		}
		var sink queueout.CohortSink
		if err := c.Resolve(&sink); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		var matchIDs *queueservices.MatchIDGenerator
		if err := c.Resolve(&matchIDs); err != nil {
			return nil, err
		}
		return queueservices.NewTickService(repo, sink, matchState, matchIDs, queueservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *queueservices.TickService.", "err", err)
		panic(err)
	}

	return b
}

// WithMatchState registers the shared per-match keyspace repository used
// by every downstream stage (spec §9's matchstate package).
func (b *ContainerBuilder) WithMatchState() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (matchstate.Repository, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return matchstateinfra.NewRepository(store), err
	}); err != nil {
		slog.Error("Failed to load matchstate.Repository.", "err", err)
		panic(err)
	}

	return b
}

// WithReadyCheck registers the Ready Check Coordinator and the CohortSink
// adapter that bridges the Queue Engine into it, chained with both the
// session-index and MatchRecord-creation hooks.
func (b *ContainerBuilder) WithReadyCheck() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (readycheckout.Repository, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return readycheckinfra.NewRepository(store), err
	}); err != nil {
		slog.Error("Failed to load readycheckout.Repository.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (readycheckout.Requeuer, error) {
		var queue queueout.Repository
		err := c.Resolve(&queue)
		return readycheckinfra.NewRequeuer(queue), err
	}); err != nil {
		slog.Error("Failed to load readycheckout.Requeuer.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (readycheckout.CooldownTracker, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return readycheckinfra.NewCooldownTracker(store), err
	}); err != nil {
		slog.Error("Failed to load readycheckout.CooldownTracker.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (readycheckout.LobbyStarter, error) {
		var lobby *lobbyservices.Service
		err := c.Resolve(&lobby)
		return lobby, err
	}); err != nil {
		slog.Error("Failed to load readycheckout.LobbyStarter.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*readycheckservices.Coordinator, error) {
		var repo readycheckout.Repository
		if err := c.Resolve(&repo); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		var requeue readycheckout.Requeuer
		if err := c.Resolve(&requeue); err != nil {
			return nil, err
		}
		var cooldowns readycheckout.CooldownTracker
		if err := c.Resolve(&cooldowns); err != nil {
			return nil, err
		}
		var lobby readycheckout.LobbyStarter
		if err := c.Resolve(&lobby); err != nil {
			return nil, err
		}
		var broadcast transport.Broadcaster
		if err := c.Resolve(&broadcast); err != nil {
			return nil, err
		}
		return readycheckservices.NewCoordinator(repo, matchState, requeue, cooldowns, lobby, broadcast, readycheckservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *readycheckservices.Coordinator.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*readycheckinfra.CohortSink, error) {
		var coordinator *readycheckservices.Coordinator
		if err := c.Resolve(&coordinator); err != nil {
			return nil, err
		}
		var index *sessioninfra.MatchIndex
		if err := c.Resolve(&index); err != nil {
			return nil, err
		}
		var records matchout.Writer
		if err := c.Resolve(&records); err != nil {
			return nil, err
		}
		return readycheckinfra.NewCohortSink(coordinator).WithSessionIndex(index).WithMatchRecordWriter(records), nil
	}); err != nil {
		slog.Error("Failed to load *readycheckinfra.CohortSink.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (queueout.CohortSink, error) {
		var sink *readycheckinfra.CohortSink
		err := c.Resolve(&sink)
		return sink, err
	}); err != nil {
		slog.Error("Failed to load queueout.CohortSink.", "err", err)
		panic(err)
	}

	return b
}

// WithLobby registers the Lobby/Veto Engine over the fixed 6-map
// competitive pool.
func (b *ContainerBuilder) WithLobby() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (lobbyout.Repository, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return lobbyinfra.NewRepository(store), err
	}); err != nil {
		slog.Error("Failed to load lobbyout.Repository.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (lobbyout.Requeuer, error) {
		var queue queueout.Repository
		err := c.Resolve(&queue)
		return lobbyinfra.NewRequeuer(queue), err
	}); err != nil {
		slog.Error("Failed to load lobbyout.Requeuer.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (lobbyout.CooldownTracker, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return lobbyinfra.NewCooldownTracker(store), err
	}); err != nil {
		slog.Error("Failed to load lobbyout.CooldownTracker.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (lobbyout.HostStarter, error) {
		var host *hostservices.Service
		if err := c.Resolve(&host); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		return hostinfra.NewStarter(host, matchState), nil
	}); err != nil {
		slog.Error("Failed to load lobbyout.HostStarter.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*lobbyservices.Service, error) {
		var repo lobbyout.Repository
		if err := c.Resolve(&repo); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		var hostStart lobbyout.HostStarter
		if err := c.Resolve(&hostStart); err != nil {
			return nil, err
		}
		var requeue lobbyout.Requeuer
		if err := c.Resolve(&requeue); err != nil {
			return nil, err
		}
		var cooldowns lobbyout.CooldownTracker
		if err := c.Resolve(&cooldowns); err != nil {
			return nil, err
		}
		var broadcast transport.Broadcaster
		if err := c.Resolve(&broadcast); err != nil {
			return nil, err
		}
		return lobbyservices.NewService(repo, matchState, hostStart, requeue, cooldowns, broadcast, competitiveMapPool(), lobbyservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *lobbyservices.Service.", "err", err)
		panic(err)
	}

	return b
}

// competitiveMapPool is the fixed 6-map active duty pool spec §4.4
// describes as "a fixed set of maps, each with mapId and mapNumber".
func competitiveMapPool() []lobbyentities.MapEntry {
	return []lobbyentities.MapEntry{
		{MapID: "ancient", MapNumber: 1},
		{MapID: "anubis", MapNumber: 2},
		{MapID: "dust2", MapNumber: 3},
		{MapID: "inferno", MapNumber: 4},
		{MapID: "mirage", MapNumber: 5},
		{MapID: "nuke", MapNumber: 6},
	}
}

// WithHostSelector registers the Host Selector: candidate ranking, room
// reservation and the confirmation window.
func (b *ContainerBuilder) WithHostSelector() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (*hostinfra.Repository, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return hostinfra.NewRepository(store), err
	}); err != nil {
		slog.Error("Failed to load *hostinfra.Repository.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (hostout.Repository, error) {
		var repo *hostinfra.Repository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load hostout.Repository.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (hostout.Requeuer, error) {
		var queue queueout.Repository
		err := c.Resolve(&queue)
		return hostinfra.NewRequeuer(queue), err
	}); err != nil {
		slog.Error("Failed to load hostout.Requeuer.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (hostout.CooldownTracker, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return hostinfra.NewCooldownTracker(store), err
	}); err != nil {
		slog.Error("Failed to load hostout.CooldownTracker.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (hostout.ValidationStarter, error) {
		var validation *validationservices.Service
		err := c.Resolve(&validation)
		return validation, err
	}); err != nil {
		slog.Error("Failed to load hostout.ValidationStarter.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*hostservices.Service, error) {
		var repo hostout.Repository
		if err := c.Resolve(&repo); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		var records matchout.HostAssignments
		if err := c.Resolve(&records); err != nil {
			return nil, err
		}
		var cooldowns hostout.CooldownTracker
		if err := c.Resolve(&cooldowns); err != nil {
			return nil, err
		}
		var requeue hostout.Requeuer
		if err := c.Resolve(&requeue); err != nil {
			return nil, err
		}
		var validation hostout.ValidationStarter
		if err := c.Resolve(&validation); err != nil {
			return nil, err
		}
		var broadcast transport.Broadcaster
		if err := c.Resolve(&broadcast); err != nil {
			return nil, err
		}
		return hostservices.NewService(repo, matchState, records, cooldowns, requeue, validation, broadcast, hostservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *hostservices.Service.", "err", err)
		panic(err)
	}

	return b
}

// WithValidationEngine registers the Validation Engine's polling loop
// over the external match-result log and the relational settlement path.
func (b *ContainerBuilder) WithValidationEngine() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (validationout.LogReader, error) {
		var pool *pgxpool.Pool
		err := c.Resolve(&pool)
		return validationinfra.NewLogReader(pool), err
	}); err != nil {
		slog.Error("Failed to load validationout.LogReader.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (validationout.ActiveMatches, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return validationinfra.NewActiveMatchRepository(store), err
	}); err != nil {
		slog.Error("Failed to load validationout.ActiveMatches.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*validationservices.Service, error) {
		var logs validationout.LogReader
		if err := c.Resolve(&logs); err != nil {
			return nil, err
		}
		var active validationout.ActiveMatches
		if err := c.Resolve(&active); err != nil {
			return nil, err
		}
		var matchState matchstate.Repository
		if err := c.Resolve(&matchState); err != nil {
			return nil, err
		}
		var records matchout.Settler
		if err := c.Resolve(&records); err != nil {
			return nil, err
		}
		var cancels matchout.HostAssignments
		if err := c.Resolve(&cancels); err != nil {
			return nil, err
		}
		var broadcast transport.Broadcaster
		if err := c.Resolve(&broadcast); err != nil {
			return nil, err
		}
		return validationservices.NewService(logs, active, matchState, records, cancels, broadcast, validationservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *validationservices.Service.", "err", err)
		panic(err)
	}

	return b
}

// WithSessionRouter registers the player->transport map, the inbound
// dispatcher and the AUTH verifier (spec §4.7/§6).
func (b *ContainerBuilder) WithSessionRouter() *ContainerBuilder {
	c := b.Container

	if err := c.Singleton(func() (*sessioninfra.MatchIndex, error) {
		var store statestore.Store
		err := c.Resolve(&store)
		return sessioninfra.NewMatchIndex(store), err
	}); err != nil {
		slog.Error("Failed to load *sessioninfra.MatchIndex.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.MatchLookup, error) {
		var idx *sessioninfra.MatchIndex
		err := c.Resolve(&idx)
		return idx, err
	}); err != nil {
		slog.Error("Failed to load sessionout.MatchLookup.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.HostReader, error) {
		var repo *hostinfra.Repository
		err := c.Resolve(&repo)
		return repo, err
	}); err != nil {
		slog.Error("Failed to load sessionout.HostReader.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.QueueJoiner, error) {
		var uc *queueusecases.AdmitUseCase
		err := c.Resolve(&uc)
		return uc, err
	}); err != nil {
		slog.Error("Failed to load sessionout.QueueJoiner.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.QueueLeaver, error) {
		var uc *queueusecases.RemoveUseCase
		err := c.Resolve(&uc)
		return uc, err
	}); err != nil {
		slog.Error("Failed to load sessionout.QueueLeaver.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.ReadyCheckCanceller, error) {
		var coordinator *readycheckservices.Coordinator
		err := c.Resolve(&coordinator)
		return coordinator, err
	}); err != nil {
		slog.Error("Failed to load sessionout.ReadyCheckCanceller.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.ReadyCheckPort, error) {
		var coordinator *readycheckservices.Coordinator
		err := c.Resolve(&coordinator)
		return coordinator, err
	}); err != nil {
		slog.Error("Failed to load sessionout.ReadyCheckPort.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.HostAborter, error) {
		var host *hostservices.Service
		err := c.Resolve(&host)
		return host, err
	}); err != nil {
		slog.Error("Failed to load sessionout.HostAborter.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.HostPort, error) {
		var host *hostservices.Service
		err := c.Resolve(&host)
		return host, err
	}); err != nil {
		slog.Error("Failed to load sessionout.HostPort.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (sessionout.LobbyPort, error) {
		var lobby *lobbyservices.Service
		err := c.Resolve(&lobby)
		return lobby, err
	}); err != nil {
		slog.Error("Failed to load sessionout.LobbyPort.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*sessionservices.Router, error) {
		var queueJoiner sessionout.QueueJoiner
		if err := c.Resolve(&queueJoiner); err != nil {
			return nil, err
		}
		var queueLeaver sessionout.QueueLeaver
		if err := c.Resolve(&queueLeaver); err != nil {
			return nil, err
		}
		var readyCheck sessionout.ReadyCheckCanceller
		if err := c.Resolve(&readyCheck); err != nil {
			return nil, err
		}
		var hostAborter sessionout.HostAborter
		if err := c.Resolve(&hostAborter); err != nil {
			return nil, err
		}
		var hostReader sessionout.HostReader
		if err := c.Resolve(&hostReader); err != nil {
			return nil, err
		}
		var matchLookup sessionout.MatchLookup
		if err := c.Resolve(&matchLookup); err != nil {
			return nil, err
		}
		return sessionservices.NewRouter(queueJoiner, queueLeaver, readyCheck, hostAborter, hostReader, matchLookup, sessionservices.RealClock), nil
	}); err != nil {
		slog.Error("Failed to load *sessionservices.Router.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*sessionservices.Dispatcher, error) {
		var queueJoiner sessionout.QueueJoiner
		if err := c.Resolve(&queueJoiner); err != nil {
			return nil, err
		}
		var queueLeaver sessionout.QueueLeaver
		if err := c.Resolve(&queueLeaver); err != nil {
			return nil, err
		}
		var readyCheck sessionout.ReadyCheckPort
		if err := c.Resolve(&readyCheck); err != nil {
			return nil, err
		}
		var lobby sessionout.LobbyPort
		if err := c.Resolve(&lobby); err != nil {
			return nil, err
		}
		var host sessionout.HostPort
		if err := c.Resolve(&host); err != nil {
			return nil, err
		}
		var broadcast transport.Broadcaster
		if err := c.Resolve(&broadcast); err != nil {
			return nil, err
		}
		return sessionservices.NewDispatcher(queueJoiner, queueLeaver, readyCheck, lobby, host, broadcast), nil
	}); err != nil {
		slog.Error("Failed to load *sessionservices.Dispatcher.", "err", err)
		panic(err)
	}

	if err := c.Singleton(func() (*auth.Verifier, error) {
		var config common.Config
		err := c.Resolve(&config)
		return auth.NewVerifier(config.AuthSecret), err
	}); err != nil {
		slog.Error("Failed to load *auth.Verifier.", "err", err)
		panic(err)
	}

	return b
}

// Finalize resolves the Router and the Kafka event publisher and points
// the broadcastProxy at the real Kafka-wrapped broadcaster. Must run
// after every other With* method and before the server starts accepting
// connections; every earlier-constructed singleton already holds a
// reference to the proxy rather than this concrete value, so nothing
// needs to be rebuilt.
func (b *ContainerBuilder) Finalize() error {
	c := b.Container

	var proxy *broadcastProxy
	if err := c.Resolve(&proxy); err != nil {
		return err
	}

	var router *sessionservices.Router
	if err := c.Resolve(&router); err != nil {
		return err
	}

	var publisher *kafka.EventPublisher
	if err := c.Resolve(&publisher); err != nil {
		return err
	}

	proxy.target = kafka.NewLifecycleBridge(router, publisher)
	return nil
}
