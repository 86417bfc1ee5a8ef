package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mzhou/focusfield/internal/analyzer"
	"github.com/mzhou/focusfield/internal/display"
	"github.com/mzhou/focusfield/internal/export"
	"github.com/mzhou/focusfield/internal/mcp"
	"github.com/mzhou/focusfield/internal/storage"
	"github.com/mzhou/focusfield/internal/watcher"
	"github.com/mzhou/focusfield/internal/web"
)

var (
	dbPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "focusfield",
		Short: "Focus Field - lexical code relation analyzer",
		Long: `focusfield finds the code entity under a cursor position and every other
location in the file that defines, uses, modifies, imports, or exports it,
then derives a minimal line range for focused display.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", ".focusfield.db", "analysis history database path")

	// Add commands
	rootCmd.AddCommand(focusCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(clearCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analyzeFile reads a file and computes the focus field at the cursor
func analyzeFile(file string, line, column int) (*analyzer.FocusContext, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return analyzer.CreateFocusField(string(data), file, line, column), nil
}

// recordAnalysis stores a context in the history database, best effort
func recordAnalysis(ctx *analyzer.FocusContext, line, column int) {
	db, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open history database: %v\n", err)
		return
	}
	defer db.Close()

	if _, err := db.RecordAnalysis(ctx, line, column); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record analysis: %v\n", err)
	}
}

func focusCmd() *cobra.Command {
	var line, column int
	var format string
	var window bool
	var noRecord bool

	cmd := &cobra.Command{
		Use:   "focus <file>",
		Short: "Compute the focus field for a cursor position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			ctx, err := analyzeFile(file, line, column)
			if err != nil {
				return err
			}
			if ctx == nil {
				fmt.Printf("No entity found at %s:%d:%d\n", file, line, column)
				return nil
			}

			if !noRecord {
				recordAnalysis(ctx, line, column)
			}

			switch format {
			case "json":
				return outputJSON(ctx)
			case "markdown":
				fmt.Print(display.FormatMarkdown(ctx))
			default:
				fmt.Print(display.FormatText(ctx))
				if window {
					data, _ := os.ReadFile(file)
					fmt.Println()
					fmt.Print(display.FormatWindow(string(data), ctx))
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 1, "1-based cursor line")
	cmd.Flags().IntVarP(&column, "column", "c", 1, "1-based cursor column")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text/json/markdown)")
	cmd.Flags().BoolVarP(&window, "window", "w", false, "print the focused source window")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not record the analysis in the history database")

	return cmd
}

func summaryCmd() *cobra.Command {
	var line, column int
	var format string

	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Summarize the focus field for a cursor position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			ctx, err := analyzeFile(file, line, column)
			if err != nil {
				return err
			}
			if ctx == nil {
				fmt.Printf("No entity found at %s:%d:%d\n", file, line, column)
				return nil
			}

			s := analyzer.Summarize(ctx)
			if format == "json" {
				return outputJSON(s)
			}
			fmt.Print(display.FormatSummary(s))

			return nil
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 1, "1-based cursor line")
	cmd.Flags().IntVarP(&column, "column", "c", 1, "1-based cursor column")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text/json)")

	return cmd
}

func historyCmd() *cobra.Command {
	var filePattern string
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			var analyses []*storage.Analysis
			if filePattern != "" {
				analyses, err = db.FindAnalysesByFile(filePattern, limit)
			} else {
				analyses, err = db.GetRecentAnalyses(limit)
			}
			if err != nil {
				return fmt.Errorf("failed to query history: %w", err)
			}

			if format == "json" {
				return outputJSON(analyses)
			}

			if len(analyses) == 0 {
				fmt.Println("No recorded analyses")
				return nil
			}

			fmt.Printf("%d recorded analyses:\n\n", len(analyses))
			for _, a := range analyses {
				fmt.Printf("  [%d] %s (%s)\n      %s:%d:%d  %d relations, lines %d-%d  %s\n",
					a.ID, a.TargetName, a.TargetKind, a.File, a.Line, a.Column,
					a.RelationCount, a.StartLine, a.EndLine, a.CreatedAt)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&filePattern, "file", "", "only show analyses whose file path contains this pattern")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of analyses (0=all)")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text/json)")

	return cmd
}

func exportCmd() *cobra.Command {
	var outputFile string
	var projectName string
	var noMermaid bool
	var noRelations bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the focus history as a markdown report",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			exporter := export.NewExporter(db)
			opts := export.DefaultExportOptions()
			opts.IncludeMermaid = !noMermaid
			opts.IncludeRelations = !noRelations
			if projectName != "" {
				opts.ProjectName = projectName
			}

			// Determine output writer
			var w *os.File
			if outputFile == "" || outputFile == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer w.Close()
			}

			return exporter.Export(w, opts)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default stdout)")
	cmd.Flags().StringVar(&projectName, "project", "", "project name used in the report header")
	cmd.Flags().BoolVar(&noMermaid, "no-mermaid", false, "skip the mermaid focus maps")
	cmd.Flags().BoolVar(&noRelations, "no-relations", false, "skip the per-analysis relation tables")

	return cmd
}

func watchCmd() *cobra.Command {
	var line, column int
	var debounceMs int
	var window bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file and recompute the focus field on every change",
		Long: `Watch mode pins a cursor position and re-runs the analysis whenever the
file is written, so the focus field stays current while you edit.

Example:
  focusfield watch src/app.js -l 12 -c 7
  focusfield watch src/app.js -l 12 -c 7 --debounce 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			// First run before watching
			ctx, err := analyzeFile(file, line, column)
			if err != nil {
				return err
			}
			printWatchResult(file, line, column, window, ctx)

			fmt.Printf("\nWatching %s (cursor %d:%d, debounce %dms)\n", file, line, column, debounceMs)
			fmt.Println("Press Ctrl+C to stop...")
			fmt.Println()

			w, err := watcher.New(
				file, line, column,
				watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
				watcher.WithOnAnalysisStart(func() {
					fmt.Printf("[%s] change detected, reanalyzing...\n", time.Now().Format("15:04:05"))
				}),
				watcher.WithOnAnalysisDone(func(ctx *analyzer.FocusContext, duration time.Duration) {
					fmt.Printf("[%s] done in %v\n", time.Now().Format("15:04:05"), duration.Round(time.Millisecond))
					printWatchResult(file, line, column, window, ctx)
					fmt.Println()
				}),
				watcher.WithOnError(func(err error) {
					fmt.Fprintf(os.Stderr, "[%s] error: %v\n", time.Now().Format("15:04:05"), err)
				}),
			)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}

			w.Start()
			defer w.Stop()

			// Wait for interrupt signal
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("\nStopping...")
			return nil
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 1, "1-based cursor line")
	cmd.Flags().IntVarP(&column, "column", "c", 1, "1-based cursor column")
	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce delay in milliseconds")
	cmd.Flags().BoolVarP(&window, "window", "w", false, "print the focused source window after each run")

	return cmd
}

// printWatchResult prints one watch iteration's outcome
func printWatchResult(file string, line, column int, window bool, ctx *analyzer.FocusContext) {
	if ctx == nil {
		fmt.Printf("No entity found at %s:%d:%d\n", file, line, column)
		return
	}
	fmt.Print(display.FormatText(ctx))
	if window {
		data, err := os.ReadFile(file)
		if err == nil {
			fmt.Println()
			fmt.Print(display.FormatWindow(string(data), ctx))
		}
	}
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server",
		Long: `Start an MCP server over stdio so AI assistants can query focus fields.

MCP tools:
  - focus: compute the focus field for a cursor position
  - focus_summary: summarize the focus field
  - relations: list related locations, optionally filtered by kind
  - history: list recently recorded analyses`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			server := mcp.NewServer(db)
			return server.Run()
		},
	}

	return cmd
}

func viewCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Start the web UI",
		Long: `Start a local web server with an interactive focus field viewer.

Example:
  focusfield view              # default port 9998
  focusfield view -p 3000      # custom port`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			server := web.NewServer(db, port)
			return server.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 9998, "server port")

	return cmd
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := db.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}

			fmt.Println("History cleared")
			return nil
		},
	}

	return cmd
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
