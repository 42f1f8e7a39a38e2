package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/config"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/console"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/logging"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/startup"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the chat proxy server",
	Long: `Run the chat proxy server

To run the server requires the environment variables PORT and MONGODB_URI,
either exported or listed in the .env overlay file. OPENAI_API_KEY is
optional at startup; a warning is printed when it is missing.

The server exits with status 1 if the configuration is incomplete or the
database cannot be reached.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("env-file", config.OverlayFileName, "env-style overlay file")
	serverCmd.Flags().String("config", "", "YAML config file (default $CHATPROXY_CONFIG_PATH/chatproxy.yml)")
	serverCmd.Flags().StringP("port", "p", "", "server listen port (overrides PORT)")
	serverCmd.Flags().StringP("bind-address", "b", "", "server bind address (overrides BIND_ADDRESS)")
}

func runServer(cmd *cobra.Command) error {
	out := console.Stderr()

	cfg, err := serverConfig(cmd)
	if err != nil {
		out.Error("❌ Error: %v", err)
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		out.Error("❌ Error: bad log level %q: %v", cfg.LogLevel, err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq := &startup.Sequencer{
		Config:  cfg,
		Console: out,
		Logger:  logger,
	}
	if err := seq.Run(ctx); err != nil {
		logger.WithError(err).WithField("state", seq.State()).Error("server stopped")
		return err
	}
	return nil
}

// serverConfig loads the configuration and applies the listen flags
func serverConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	port, _ := cmd.Flags().GetString("port")
	bindAddress, _ := cmd.Flags().GetString("bind-address")
	cfg.ApplyFlags(port, bindAddress)
	return cfg, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(config.LoadOptions{
		OverlayFile: envFile,
		ConfigFile:  configFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
