package main

import (
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cognicore/ocrfix/pkg/ocrfix/config"
	"github.com/cognicore/ocrfix/pkg/ocrfix/oracle"
)

func newDictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the Redis custom dictionary",
	}
	pf := cmd.PersistentFlags()
	pf.String("redis-addr", "localhost:6379", "Redis address")
	pf.String("redis-password", "", "Redis password")
	pf.Int("redis-db", 0, "Redis database number")
	pf.String("redis-key", config.DefaultRedisKey, "Redis set holding custom words")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <word...>",
			Short: "Add words",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDict(cmd, func(rs *oracle.RedisSet) error {
					for _, w := range args {
						if err := rs.Add(cmd.Context(), w); err != nil {
							return fmt.Errorf("add %q: %w", w, err)
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %d words\n", len(args))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <word...>",
			Short: "Remove words",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDict(cmd, func(rs *oracle.RedisSet) error {
					for _, w := range args {
						if err := rs.Remove(cmd.Context(), w); err != nil {
							return fmt.Errorf("remove %q: %w", w, err)
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %d words\n", len(args))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all words",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDict(cmd, func(rs *oracle.RedisSet) error {
					words, err := rs.All(cmd.Context())
					if err != nil {
						return err
					}
					sort.Strings(words)
					for _, w := range words {
						fmt.Fprintln(cmd.OutOrStdout(), w)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func (a *app) withDict(cmd *cobra.Command, fn func(*oracle.RedisSet) error) error {
	if err := a.bind(cmd.Flags()); err != nil {
		return err
	}
	rs := oracle.NewRedisSet(redis.NewClient(&redis.Options{
		Addr:     a.v.GetString("redis-addr"),
		Password: a.v.GetString("redis-password"),
		DB:       a.v.GetInt("redis-db"),
	}), a.v.GetString("redis-key"))
	defer rs.Close()

	if err := rs.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("connect redis %s: %w", a.v.GetString("redis-addr"), err)
	}
	return fn(rs)
}
