package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/system/tasklog"
	"github.com/spf13/cobra"
)

var (
	auditLimit  int
	auditMaxAge int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the local gateway audit log",
	Long: `View and manage the local audit log.
Every call, connect, disconnect and subscribe against the gateway is
recorded here when audit logging is enabled in the config.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Recent(auditLimit)
		if err != nil {
			return fmt.Errorf("query audit log: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No audit records found.")
			return nil
		}

		for _, r := range records {
			ts := formatAuditTime(r.CreatedAt)
			fmt.Printf("  #%-6d [%s] %-10s %-24s %s\n", r.ID, ts, r.Action, r.Method, r.Status)
			if r.Params != "" {
				fmt.Printf("          params: %s\n", truncateString(r.Params, 80))
			}
			if r.ErrorMsg != "" {
				fmt.Printf("          error:  %s\n", r.ErrorMsg)
			}
			if r.DurationMs > 0 {
				fmt.Printf("          duration: %dms\n", r.DurationMs)
			}
		}
		return nil
	},
}

var auditGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print one audit record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid record ID: %s", args[0])
		}

		rec, err := store.Get(id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("record #%d not found", id)
		}
		data, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var auditCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show total audit record count",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		cnt, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Printf("Total audit records: %d\n", cnt)
		return nil
	},
}

var auditCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired audit records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.Cleanup()
		if err != nil {
			return fmt.Errorf("cleanup audit log: %w", err)
		}
		if deleted == 0 {
			fmt.Println("No records to clean.")
		} else {
			fmt.Printf("Removed %d audit records\n", deleted)
		}
		return nil
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20, "Max records to show")
	auditCleanCmd.Flags().IntVar(&auditMaxAge, "max-age", 0, "Override retention in days")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditGetCmd)
	auditCmd.AddCommand(auditCountCmd)
	auditCmd.AddCommand(auditCleanCmd)
}

func openAuditStore() (*tasklog.Store, error) {
	cfg := loadConfig()
	tlCfg := tasklog.Config{
		Dir:        cfg.Audit.Dir,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
		Enabled:    true,
	}
	if auditMaxAge > 0 {
		tlCfg.MaxAgeDays = auditMaxAge
	}
	store, err := tasklog.Open(tlCfg)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return store, nil
}

func formatAuditTime(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
