package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentwire/didwba/internal/config"
	"github.com/agentwire/didwba/internal/discovery"
	"github.com/agentwire/didwba/internal/identity"
	"github.com/agentwire/didwba/internal/server"
	"github.com/agentwire/didwba/internal/utils/logging"
	"github.com/agentwire/didwba/pkg/agent"
	"github.com/agentwire/didwba/pkg/cryptography"
	"github.com/agentwire/didwba/pkg/did/wba"
)

var (
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		RunE:  runDaemon,
		Short: "serve the agent's did document and description",
	}
)

func init() {
	daemonCmd.Flags().IntP("api-port", "p", 8080, "api port")
	viper.BindPFlag("api_port", daemonCmd.Flags().Lookup("api-port"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	id, err := loadOrCreateIdentity(cfg.Agent())
	if err != nil {
		return errors.Wrap(err, "preparing identity")
	}

	desc := id.Describe(profileFromConfig(cfg.Agent()))

	auth := server.NewAuthenticator(
		wba.NewResolver(),
		cfg.Agent().Domain,
		cfg.Auth().TimestampWindow,
		cfg.Auth().NonceWindow,
	)

	srv, err := server.NewServer(id, desc, auth)
	if err != nil {
		return errors.Wrap(err, "initing server")
	}
	defer srv.Shutdown(ctx)

	errCh := make(chan error)

	go func() {
		if err := srv.ListenAndServe(cfg.APIPort()); err != nil {
			errCh <- err
		}
	}()

	if regs := cfg.Agent().RegistryEndpoints; len(regs) > 0 {
		go announce(ctx, regs, id, desc)
	}

	logging.WithField("did", id.DID).Info("agent running")

	select {
	case err := <-errCh:
		return err
	case <-waitExit(ctx):
		return srv.Shutdown(ctx)
	}
}

// announce is best-effort; a dead registry never stops the daemon.
func announce(ctx context.Context, regs []string, id *agent.Identity, desc *agent.Description) {
	docURL, err := id.DID.DocumentURL()
	if err != nil {
		logging.WithError(err).Warn("deriving document url")
		return
	}

	c := discovery.NewClient(regs)
	if err := c.Register(ctx, &discovery.Registration{
		DID:         string(id.DID),
		DocumentURL: docURL,
		Description: desc,
	}); err != nil {
		logging.WithError(err).Warn("discovery registration incomplete")
	}
}

// loadOrCreateIdentity reuses the stored identity for the configured
// domain and path, generating and persisting one on first run.
func loadOrCreateIdentity(a *config.Agent) (*agent.Identity, error) {
	fs, err := identity.NewFileStore(a.IdentityFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening identity store")
	}

	did := wba.FormatDID(a.Domain, a.Path)

	id, err := fs.Find(did)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, err
	}

	id, err = agent.NewIdentity(a.Domain, a.Path, cryptography.KeyType(a.Algorithm))
	if err != nil {
		return nil, errors.Wrap(err, "generating identity")
	}

	if err := fs.Add(id); err != nil {
		return nil, errors.Wrap(err, "storing identity")
	}

	logging.WithField("did", id.DID).Info("generated new identity")

	return id, nil
}

func profileFromConfig(a *config.Agent) agent.Profile {
	return agent.Profile{
		Name:         a.Name,
		Description:  a.Description,
		Version:      a.Version,
		Capabilities: a.Capabilities,
		Interfaces: []agent.Interface{
			{Type: "http", URL: "https://" + a.Domain + "/v1/ping", Description: "authenticated ping"},
		},
	}
}
