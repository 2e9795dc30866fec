package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentwire/didwba/internal/config"
	"github.com/agentwire/didwba/internal/identity"
	"github.com/agentwire/didwba/pkg/agent"
	"github.com/agentwire/didwba/pkg/cryptography"
	"github.com/agentwire/didwba/pkg/did/wba"
)

var (
	identityCmd = &cobra.Command{
		Use:   "identity",
		Short: "manage agent identities",
	}

	identity_newCmd = &cobra.Command{
		Use:   "new",
		Short: "generate and store a new identity",
		RunE:  runIdentityNew,
	}

	identity_showCmd = &cobra.Command{
		Use:   "show",
		Short: "print the configured identity's did document",
		RunE:  runIdentityShow,
	}

	identity_listCmd = &cobra.Command{
		Use:   "list",
		Short: "list stored identities",
		RunE:  runIdentityList,
	}
)

func init() {
	identity_newCmd.Flags().String("algorithm", "", "key algorithm (ed25519 or secp256k1)")
	viper.BindPFlag("agent.algorithm", identity_newCmd.Flags().Lookup("algorithm"))

	identity_showCmd.Flags().Bool("key", false, "include the private key pem")
}

func runIdentityNew(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	a := cfg.Agent()

	fs, err := identity.NewFileStore(a.IdentityFile)
	if err != nil {
		return errors.Wrap(err, "opening identity store")
	}

	if _, err := fs.Find(wba.FormatDID(a.Domain, a.Path)); err == nil {
		return errors.New("identity already exists for configured domain and path")
	}

	id, err := agent.NewIdentity(a.Domain, a.Path, cryptography.KeyType(a.Algorithm))
	if err != nil {
		return errors.Wrap(err, "generating identity")
	}

	if err := fs.Add(id); err != nil {
		return errors.Wrap(err, "storing identity")
	}

	fmt.Println(id.DID)

	return nil
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	a := cfg.Agent()

	fs, err := identity.NewFileStore(a.IdentityFile)
	if err != nil {
		return errors.Wrap(err, "opening identity store")
	}

	id, err := fs.Find(wba.FormatDID(a.Domain, a.Path))
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(id.Document, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling document")
	}

	fmt.Println(string(doc))

	if ok, _ := cmd.Flags().GetBool("key"); ok {
		fmt.Print(string(id.PrivateKeyPEM()))
	}

	return nil
}

func runIdentityList(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	fs, err := identity.NewFileStore(cfg.Agent().IdentityFile)
	if err != nil {
		return errors.Wrap(err, "opening identity store")
	}

	ids, err := fs.List()
	if err != nil {
		return err
	}

	for _, id := range ids {
		fmt.Printf("%s\t%s\n", id.DID, id.Created.Format("2006-01-02"))
	}

	return nil
}
