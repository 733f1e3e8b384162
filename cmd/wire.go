package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/api"
	dashboardrender "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/render/dashboard"
	tomlrepo "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/repo/toml"
	chainstore "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/secrets/chain"
	filestore "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/secrets/file"
	passstore "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/secrets/pass"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/application"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/config"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/logging"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/version"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	cfg        config.Config
	logger     zerolog.Logger
	session    *application.SessionManager
	dashboards *application.DashboardService
	snapshots  *tomlrepo.SnapshotRepository
	render     func(application.Dashboard, dashboardrender.RenderOptions) (string, error)
	now        func() time.Time

	client    *api.Client
	clientErr error
}

// apiClient returns the authenticated client, or why none could be built.
func (a *app) apiClient() (*api.Client, error) {
	if a.client == nil {
		return nil, a.clientErr
	}
	return a.client, nil
}

// appLoader wires the app on first use, after flags are parsed.
type appLoader struct {
	viper  *viper.Viper
	stderr io.Writer

	once sync.Once
	app  *app
	err  error
}

func (l *appLoader) load() (*app, error) {
	l.once.Do(func() {
		stderr := l.stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		l.app, l.err = wireApp(l.viper, stderr)
	})
	return l.app, l.err
}

func wireApp(v *viper.Viper, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg, stderr)
	if err != nil {
		return nil, err
	}

	store, err := credentialStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire credential store: %w", err)
	}

	snapshots, err := tomlrepo.NewSnapshotRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire snapshot repository: %w", err)
	}

	clock := ports.ZonedClock{Location: cfg.Location}
	a := &app{
		cfg:       cfg,
		logger:    logger,
		snapshots: snapshots,
		render:    dashboardrender.Render,
		now:       clock.Now,
	}

	baseURL, err := cfg.APIBaseURL()
	if err != nil {
		a.clientErr = err
	} else {
		clientCfg := cfg.Client(baseURL)
		clientCfg.UserAgent = "ait/" + version.Version

		tokenHTTP, err := api.NewClient(clientCfg, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("wire token client: %w", err)
		}
		a.session = application.NewSessionManager(store, api.NewTokenClient(tokenHTTP), logger, cfg.RefreshTimeout)

		a.client, err = api.NewClient(clientCfg, a.session, logger)
		if err != nil {
			return nil, fmt.Errorf("wire api client: %w", err)
		}
	}

	if a.session == nil {
		a.session = application.NewSessionManager(store, nil, logger, cfg.RefreshTimeout)
	}

	var source ports.IssueSource
	sourceURL := ""
	if a.client != nil {
		source = a.client
		sourceURL = a.client.BaseURL()
	}
	a.dashboards = application.NewDashboardService(source, snapshots, clock, sourceURL, logger)

	logger.Debug().Str("base_url", sourceURL).Str("config_file", cfg.ConfigFile).Msg("wired")
	return a, nil
}

func credentialStore(cfg config.Config) (ports.CredentialStore, error) {
	switch cfg.CredentialBackend {
	case config.BackendFile:
		return filestore.NewStore(cfg.CredentialsDir), nil
	case config.BackendPass:
		return passstore.NewStore(passstore.DefaultPrefix), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(cfg.CredentialsDir)
	}
}
