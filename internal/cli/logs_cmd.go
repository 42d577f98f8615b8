package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	syslogger "github.com/masteryodaa/openclaw-sdk-sub002/internal/system/logger"
	"github.com/spf13/cobra"
)

var logsTailLines int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect client log files",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveLogDir()
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("list log files: %w", err)
		}

		type fileInfo struct {
			name string
			size int64
		}
		var files []fileInfo
		var total int64
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			files = append(files, fileInfo{e.Name(), info.Size()})
			total += info.Size()
		}
		if len(files) == 0 {
			fmt.Printf("No log files found in %s\n", dir)
			return nil
		}
		sort.Slice(files, func(i, j int) bool { return files[i].name > files[j].name })

		fmt.Printf("Log files (%d, total %.1f MB):\n\n", len(files), float64(total)/1024/1024)
		for _, f := range files {
			fmt.Printf("  %-28s %8.2f MB\n", f.name, float64(f.size)/1024/1024)
		}
		fmt.Printf("\nLog directory: %s\n", dir)
		return nil
	},
}

var logsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the end of the current log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveLogDir()
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read log dir: %w", err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			fmt.Printf("No log files found in %s\n", dir)
			return nil
		}
		sort.Strings(names)
		latest := filepath.Join(dir, names[len(names)-1])

		f, err := os.Open(latest)
		if err != nil {
			return err
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			if len(lines) > logsTailLines {
				lines = lines[1:]
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		maxAge := cfg.Logs.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		mgr, err := syslogger.New(syslogger.Config{
			Dir:        cfg.Logs.Dir,
			Level:      syslogger.ParseLevel(cfg.Logs.Level),
			MaxAgeDays: maxAge,
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer mgr.Close()

		removed, err := mgr.Cleanup()
		if err != nil {
			return fmt.Errorf("cleanup logs: %w", err)
		}
		if removed == 0 {
			fmt.Println("No expired log files to clean.")
		} else {
			fmt.Printf("Removed %d expired log files (older than %d days)\n", removed, maxAge)
		}
		return nil
	},
}

func init() {
	logsTailCmd.Flags().IntVarP(&logsTailLines, "lines", "n", 50, "Number of lines")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsTailCmd)
	logsCmd.AddCommand(logsCleanCmd)
}

func resolveLogDir() string {
	cfg := loadConfig()
	if strings.TrimSpace(cfg.Logs.Dir) != "" {
		return cfg.Logs.Dir
	}
	return syslogger.DefaultConfig().Dir
}
