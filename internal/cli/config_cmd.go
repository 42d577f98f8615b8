package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/settings"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/config"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/spf13/cobra"
)

var configCmdGroup = &cobra.Command{
	Use:   "config",
	Short: "Inspect local and gateway configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the local client configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		fmt.Printf("\nConfig file: %s\n", config.Path())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Path())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", config.Path())
		return nil
	},
}

var configRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Print the gateway's runtime configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			tree, err := settings.NewManager(gw, logger).Get(ctx)
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(tree, "", "  ")
			fmt.Println(string(data))
			return nil
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key>=<value>...",
	Short: "Patch the gateway's runtime configuration",
	Long: `Apply key=value pairs to the gateway config. Values are parsed as
JSON when possible, otherwise sent as strings:

  openclaw config set defaultModel=claude-opus maxTokens=8192`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := make(map[string]any, len(args))
		for _, arg := range args {
			key, raw, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			var val any
			if err := json.Unmarshal([]byte(raw), &val); err != nil {
				val = raw
			}
			changes[key] = val
		}
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			tree, err := settings.NewManager(gw, logger).Patch(ctx, changes)
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(tree, "", "  ")
			fmt.Println(string(data))
			return nil
		})
	},
}

func init() {
	configCmdGroup.AddCommand(configShowCmd)
	configCmdGroup.AddCommand(configPathCmd)
	configCmdGroup.AddCommand(configInitCmd)
	configCmdGroup.AddCommand(configRemoteCmd)
	configCmdGroup.AddCommand(configSetCmd)
}
