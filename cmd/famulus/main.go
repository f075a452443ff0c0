// Package main is the entry point for the famulus CLI, a thin caller over
// the famulus backend: it wires the App, optionally seeds the in-memory
// store from a YAML file, and invokes tools or store queries.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbellec/famulus/internal/config"
	"github.com/tbellec/famulus/internal/memory"
	"github.com/tbellec/famulus/internal/tool"
	"github.com/tbellec/famulus/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "famulus:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "famulus",
		Short:         "A personal-assistant backend: scheduled background jobs over an append-only memory store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML configuration file")
	root.AddCommand(versionCmd(), workersCmd(), scheduleCmd(), memoryCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("famulus %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func workersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List registered background workers and tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			for _, info := range a.Tools.Tools() {
				fmt.Printf("%-28s %s\n", info.Name, info.Description)
			}
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Invoke the scheduler tool and print its result envelope",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			seed, _ := flags.GetString("seed")
			if seed != "" {
				if err := seedStore(cmd.Context(), a, seed); err != nil {
					return err
				}
			}

			args := map[string]string{}
			for _, key := range []string{"kind", "user", "conversation", "title", "content"} {
				if v, _ := flags.GetString(key); v != "" {
					args[argName(key)] = v
				}
			}
			rawArgs, err := json.Marshal(args)
			if err != nil {
				return err
			}

			source, _ := flags.GetString("source")
			user, _ := flags.GetString("user")
			conversation, _ := flags.GetString("conversation")
			ectx := tool.ExecutionContext{
				UserID:         user,
				ConversationID: conversation,
				Source:         tool.Source{Kind: tool.SourceKind(source)},
			}

			res := a.Scheduler.Execute(cmd.Context(), rawArgs, ectx)
			return printJSON(res)
		},
	}
	cmd.Flags().String("seed", "", "YAML file of memory items to load before scheduling")
	cmd.Flags().String("kind", "", "schedule kind (default memory_compaction)")
	cmd.Flags().String("user", "", "user id for the execution context")
	cmd.Flags().String("conversation", "", "conversation id for the execution context")
	cmd.Flags().String("title", "", "title for the resulting summary item")
	cmd.Flags().String("content", "", "pre-computed summary content")
	cmd.Flags().String("source", string(tool.SourceUser), "invocation source kind (user, system)")
	return cmd
}

func memoryCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the memory store",
	}
	root.AddCommand(memoryListCmd(), memoryAddCmd())
	return root
}

func memoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory items matching the given filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			seed, _ := flags.GetString("seed")
			if seed != "" {
				if err := seedStore(cmd.Context(), a, seed); err != nil {
					return err
				}
			}

			user, _ := flags.GetString("user")
			conversation, _ := flags.GetString("conversation")
			kinds, _ := flags.GetStringSlice("kinds")
			tags, _ := flags.GetStringSlice("tags")
			limit, _ := flags.GetInt("limit")
			if limit == 0 {
				limit = a.ListLimit()
			}

			query := memory.ListQuery{
				UserID:         user,
				ConversationID: conversation,
				Tags:           tags,
				Limit:          limit,
			}
			for _, k := range kinds {
				query.Kinds = append(query.Kinds, memory.Kind(k))
			}

			items, err := a.Store.List(cmd.Context(), query)
			if err != nil {
				return err
			}

			views := make([]itemView, len(items))
			for i, it := range items {
				views[i] = newItemView(it)
			}
			return printJSON(views)
		},
	}
	cmd.Flags().String("seed", "", "YAML file of memory items to load before listing")
	cmd.Flags().String("user", "", "filter by user id")
	cmd.Flags().String("conversation", "", "filter by conversation id")
	cmd.Flags().StringSlice("kinds", nil, "filter by kinds (fact, preference, summary, episode)")
	cmd.Flags().StringSlice("tags", nil, "filter by tag overlap")
	cmd.Flags().Int("limit", 0, "maximum number of results")
	return cmd
}

func memoryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a memory item and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			user, _ := flags.GetString("user")
			kind, _ := flags.GetString("kind")
			title, _ := flags.GetString("title")
			content, _ := flags.GetString("content")
			tags, _ := flags.GetStringSlice("tags")
			conversation, _ := flags.GetString("conversation")

			item, err := a.Store.Add(cmd.Context(), memory.AddRequest{
				UserID:         user,
				Kind:           memory.Kind(kind),
				Title:          title,
				Content:        content,
				Tags:           tags,
				ConversationID: conversation,
			})
			if err != nil {
				return err
			}
			return printJSON(newItemView(item))
		},
	}
	cmd.Flags().String("user", "", "user id (required)")
	cmd.Flags().String("kind", string(memory.KindFact), "item kind")
	cmd.Flags().String("title", "", "item title")
	cmd.Flags().String("content", "", "item content")
	cmd.Flags().StringSlice("tags", nil, "item tags")
	cmd.Flags().String("conversation", "", "conversation id")
	return cmd
}

// buildApp loads configuration (defaults when no --config is given) and
// constructs the App.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return app.New(cfg, app.Options{})
}

// seedItem is one entry of a --seed YAML file.
type seedItem struct {
	UserID         string   `yaml:"userId"`
	Kind           string   `yaml:"kind"`
	Title          string   `yaml:"title"`
	Content        string   `yaml:"content"`
	Tags           []string `yaml:"tags,omitempty"`
	ConversationID string   `yaml:"conversationId,omitempty"`
}

// seedStore loads a YAML list of memory items into the store.
func seedStore(ctx context.Context, a *app.App, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file %s: %w", path, err)
	}

	var items []seedItem
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for i, it := range items {
		if _, err := a.Store.Add(ctx, memory.AddRequest{
			UserID:         it.UserID,
			Kind:           memory.Kind(it.Kind),
			Title:          it.Title,
			Content:        it.Content,
			Tags:           it.Tags,
			ConversationID: it.ConversationID,
		}); err != nil {
			return fmt.Errorf("seed item %d: %w", i, err)
		}
	}
	return nil
}

// itemView is the JSON shape the CLI prints for memory items.
type itemView struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	Kind             string   `json:"kind"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Tags             []string `json:"tags,omitempty"`
	ConversationID   string   `json:"conversationId,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	IsCompacted      bool     `json:"isCompacted,omitempty"`
	CompactedFromIDs []string `json:"compactedFromIds,omitempty"`
}

func newItemView(it memory.Item) itemView {
	return itemView{
		ID:               it.ID,
		UserID:           it.UserID,
		Kind:             string(it.Kind),
		Title:            it.Title,
		Content:          it.Content,
		Tags:             it.Tags,
		ConversationID:   it.ConversationID,
		CreatedAt:        it.CreatedAt.Format(time.RFC3339Nano),
		IsCompacted:      it.IsCompacted,
		CompactedFromIDs: it.CompactedFromIDs,
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// argName maps a CLI flag name to the scheduler's JSON argument name.
func argName(flag string) string {
	switch flag {
	case "user":
		return "userId"
	case "conversation":
		return "conversationId"
	default:
		return flag
	}
}
