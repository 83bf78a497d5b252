// Package cli wires the discuss commands: the server itself and thin clients
// for its API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"discuss/internal/config"
)

const Version = "0.1.0-dev"

// settings carries the viper instance and config file shared by every
// subcommand of one command tree.
type settings struct {
	v          *viper.Viper
	configFile string
}

func (s *settings) load() (*config.Config, error) {
	return config.Load(s.v, s.configFile)
}

func NewCommand() *cobra.Command {
	s := &settings{v: viper.New()}

	root := &cobra.Command{
		Use:           "discuss-server",
		Short:         "Discussion forum search and mention notifications",
		Long:          "Serves full-text thread search and @-mention notifications over HTTP and MCP",
		Example:       fmt.Sprintf("  %s serve --database forum.db\n  %s search --course-id cs101 recursion", os.Args[0], os.Args[0]),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.configFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("database", "discuss.db", "Database filename")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("server-url", "http://localhost:8080", "Server URL used by client commands")
	flags.String("api-key", "", "Shared API key")
	s.v.BindPFlag("database", flags.Lookup("database"))
	s.v.BindPFlag("log_level", flags.Lookup("log-level"))
	s.v.BindPFlag("server_url", flags.Lookup("server-url"))
	s.v.BindPFlag("api_key", flags.Lookup("api-key"))

	root.AddCommand(newServeCommand(s))
	root.AddCommand(newSearchCommand(s))
	root.AddCommand(newNotificationsCommand(s))
	root.AddCommand(newUsersCommand(s))
	root.AddCommand(newKeygenCommand())

	return root
}
