package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	authadapter "github.com/Sanskargoyal608/Eziii/internal/adapters/auth"
	metricsadapter "github.com/Sanskargoyal608/Eziii/internal/adapters/metrics"
	chatrender "github.com/Sanskargoyal608/Eziii/internal/adapters/render/chat"
	redisrepo "github.com/Sanskargoyal608/Eziii/internal/adapters/repo/redis"
	tomlrepo "github.com/Sanskargoyal608/Eziii/internal/adapters/repo/toml"
	chainstore "github.com/Sanskargoyal608/Eziii/internal/adapters/secrets/chain"
	filestore "github.com/Sanskargoyal608/Eziii/internal/adapters/secrets/file"
	passstore "github.com/Sanskargoyal608/Eziii/internal/adapters/secrets/pass"
	httptransport "github.com/Sanskargoyal608/Eziii/internal/adapters/transport/http"
	"github.com/Sanskargoyal608/Eziii/internal/application"
	"github.com/Sanskargoyal608/Eziii/internal/config"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/Sanskargoyal608/Eziii/internal/version"
	"github.com/Sanskargoyal608/Eziii/pkg/logger"
	"github.com/rs/zerolog"
)

type app struct {
	cfg           config.ClientConfig
	log           zerolog.Logger
	metrics       *metricsadapter.Registry
	sessions      *application.SessionManager
	conversations *application.ConversationStore
	dispatcher    *application.QueryDispatcher
	resources     *application.ResourceClient
	portal        *application.PortalClient
	documents     *application.DocumentService
	chatRenderer  func(domain.Conversation, chatrender.RenderOptions) (string, error)
	now           func() time.Time
	closers       []func() error
}

func wireApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	registry := metricsadapter.NewRegistry()
	clock := ports.SystemClock{}

	secrets, err := wireSecretStore(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		log:          log,
		metrics:      registry,
		chatRenderer: chatrender.Render,
		now:          time.Now,
	}

	state, err := a.wireStateStore(ctx, clock)
	if err != nil {
		return nil, err
	}

	transport := httptransport.Transport{
		Origins: httptransport.Origins{
			APIBaseURL:    cfg.APIBaseURL,
			PortalBaseURL: cfg.PortalBaseURL,
		},
		HTTPClient:     http.DefaultClient,
		RequestTimeout: cfg.RequestTimeout,
		UserAgent:      "ez/" + version.Version,
		Metrics:        registry,
		Log:            log,
	}

	tokens := application.NewTokenStore(secrets, cfg.Namespace, log)
	a.sessions = application.NewSessionManager(
		tokens,
		authadapter.Client{Transport: transport},
		application.WithSessionLogger(log),
		application.WithSessionMetrics(registry),
	)
	gateway := application.NewGateway(transport, a.sessions, log)
	a.conversations = application.NewConversationStore(state, cfg.Namespace, clock, log)
	a.dispatcher = application.NewQueryDispatcher(gateway, a.sessions, a.conversations, registry, log)
	a.resources = application.NewResourceClient(gateway, registry, log)
	a.portal = application.NewPortalClient(gateway)
	a.documents = application.NewDocumentService(gateway, log)

	return a, nil
}

func wireSecretStore(cfg config.ClientConfig, log zerolog.Logger) (ports.SecretStore, error) {
	switch cfg.SecretsBackend {
	case "file":
		return filestore.NewStore(cfg.SecretsDir), nil
	case "pass":
		return passstore.NewStore(passstore.WithPrefix(passstore.DefaultPrefix)), nil
	default:
		store, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir, chainstore.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("wire secret store chain: %w", err)
		}
		return store, nil
	}
}

func (a *app) wireStateStore(ctx context.Context, clock ports.Clock) (ports.StateStore, error) {
	if a.cfg.StateBackend == "redis" {
		client, err := redisrepo.Connect(ctx, redisrepo.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			Timeout:  a.cfg.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("wire redis state store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return redisrepo.NewStateStore(client), nil
	}

	store, err := tomlrepo.NewStateStore(a.cfg.StatePath, clock)
	if err != nil {
		return nil, fmt.Errorf("wire state store: %w", err)
	}
	return store, nil
}

// bootstrap settles the session from the stored credential. Every command
// starts from a fresh process, so this runs once per invocation.
func (a *app) bootstrap(ctx context.Context) error {
	if _, err := a.sessions.Bootstrap(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyBootstrapped) {
		return err
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
