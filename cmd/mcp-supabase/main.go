package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stepable/internal/config"
	"stepable/internal/logger"
	"stepable/internal/mcpbridge"
	"stepable/internal/supabase"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var version = "dev"

func rootCmd() *cobra.Command {
	var url, anonKey, accessToken string

	c := &cobra.Command{
		Use:           "mcp-supabase",
		Short:         "Serve the hosted database as MCP tools over stdio",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Flags win over the environment.
			if url != "" {
				os.Setenv("SUPABASE_URL", url)
			}
			if anonKey != "" {
				os.Setenv("SUPABASE_ANON_KEY", anonKey)
			}
			cfg, err := config.LoadBridge()
			if err != nil {
				return err
			}
			if accessToken != "" {
				cfg.AccessToken = accessToken
			}

			client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
			server := mcpbridge.NewServer(client, cfg.AccessToken, version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}

	c.Flags().StringVar(&url, "url", "", "Hosted project URL (default $SUPABASE_URL)")
	c.Flags().StringVar(&anonKey, "anon-key", "", "Anon API key (default $SUPABASE_ANON_KEY)")
	c.Flags().StringVar(&accessToken, "access-token", "", "User session reported by get_user_info (default $SUPABASE_ACCESS_TOKEN)")
	return c
}

func main() {
	// stdout carries the protocol; logs go to stderr.
	log := logger.New()
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("mcp-supabase stopped")
		os.Exit(1)
	}
}
