package cli

import (
	"github.com/scriptvoice/narration-planner/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ServerUrl string
	Username  string
	Org       string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ServerUrl: "http://localhost:3443",
		Username:  "admin",
		Org:       "internal",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server")
	fs.StringVar(&o.Username, "as-user", o.Username, "Username to act as")
	fs.StringVar(&o.Org, "as-org", o.Org, "Organization to act as")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

func (o *GlobalOptions) clientConfig() *client.Config {
	cfg := client.NewDefault()
	cfg.Service.Server = o.ServerUrl
	return cfg
}

func (o *GlobalOptions) identity() client.Identity {
	return client.Identity{Username: o.Username, Organization: o.Org}
}

func (o *GlobalOptions) Producer() (client.Producer, error) {
	return client.NewProducer(o.clientConfig(), o.identity())
}

func (o *GlobalOptions) Repository() (client.Repository, error) {
	return client.NewRepository(o.clientConfig(), o.identity())
}
