// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/db"
	"github.com/danielhkuo/ranked-elections/models"
	"github.com/danielhkuo/ranked-elections/ratelimit"
	"github.com/danielhkuo/ranked-elections/store"
)

var (
	databaseURL  string
	databaseType string
	redisURL     string
	Version      = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "electionsctl",
		Short: "electionsctl - operate a ranked elections database",
		Long:  "Initialize the schema, seed data, issue API keys and run abuse aggregation by hand",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cliparse.LoadEnvFiles()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database", "d", "", "Database URL (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&databaseType, "type", "t", "", "Database type, sqlite or postgres (default $DATABASE_TYPE)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis URL of the rate-limit view (default $REDIS_URL)")

	rootCmd.AddCommand(
		initDBCmd(),
		hydrateCmd(),
		aggregateCmd(),
		keysCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the same configuration the server would start with,
// letting the persistent flags override the environment.
func loadConfig() (cliparse.Config, error) {
	var args []string
	if databaseURL != "" {
		args = append(args, "-d", databaseURL)
	}
	if databaseType != "" {
		args = append(args, "-t", databaseType)
	}
	if redisURL != "" {
		args = append(args, "-redis", redisURL)
	}
	return cliparse.ParseFlags(args)
}

// connect opens the database and makes sure the schema exists.
func connect(ctx context.Context) (*sql.DB, cliparse.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cliparse.Config{}, err
	}
	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, cliparse.Config{}, err
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, cliparse.Config{}, err
	}
	return conn, cfg, nil
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create any missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, cfg, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			fmt.Printf("Schema ready (%s): %d tables\n", cfg.DatabaseType, len(db.Tables))
			return nil
		},
	}
}

func hydrateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "hydrate",
		Short: "Load keys, elections and rankings from a YAML seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := ParseSeed(f)
			if err != nil {
				return err
			}

			conn, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := Hydrate(cmd.Context(), store.New(conn), seed, time.Now())
			if err != nil {
				return err
			}

			fmt.Printf("Hydrated %d keys, %d elections, %d rankings\n", res.Keys, res.Elections, res.Rankings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file")
	return cmd
}

func aggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Run one abuse aggregation pass and print the resulting view",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, cfg, err := connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			st := store.New(conn)
			var view ratelimit.View = st
			if cfg.RedisURL != "" {
				opts, err := redis.ParseURL(cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("invalid redis URL: %w", err)
				}
				client := redis.NewClient(opts)
				defer client.Close()
				view = ratelimit.NewRedisView(client)
			}

			res, err := ratelimit.NewAggregator(st, view, ratelimit.NewPolicy(cfg)).Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Offending keys: %d, offending IPs: %d, carried over: %d, escalated: %d\n",
				res.KeyOffenders, res.IPOffenders, res.CarriedOver, res.Escalated)

			rows, err := view.LimitedSince(ctx, time.Now().UnixMilli())
			if err != nil {
				return err
			}
			return printLimited(rows)
		},
	}
}

func printLimited(rows []models.LimitedEntry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tKIND\tLIMITED UNTIL")
	fmt.Fprintln(w, "-------\t----\t-------------")
	for _, r := range rows {
		until := time.UnixMilli(r.Until).Format(time.RFC3339)
		if r.IP != nil {
			fmt.Fprintf(w, "%s\tip\t%s\n", *r.IP, until)
		}
		if r.Key != nil {
			fmt.Fprintf(w, "%s\tkey\t%s\n", *r.Key, until)
		}
	}
	return w.Flush()
}

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}

	var owner string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			key, err := auth.NewAPIKey()
			if err != nil {
				return err
			}
			if err := store.New(conn).CreateKey(cmd.Context(), models.APIKey{Key: key, Owner: owner}); err != nil {
				return err
			}

			fmt.Println(key)
			return nil
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "Who the key is issued to")
	create.MarkFlagRequired("owner")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			keys, err := store.New(conn).ListKeys(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OWNER\tKEY")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\n", k.Owner, k.Key)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("electionsctl version %s\n", Version)
		},
	}
}
