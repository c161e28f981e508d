package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/shaum/internal/cache"
)

func (a *app) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached calendar months",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget cached remote calendar months",
		Long:  "Delete every cached remote calendar month from the configured backend.\nThe cached location is kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			var err error
			switch a.cfg.CacheBackend {
			case "memory":
			case "redis":
				rc := cache.NewRedis(cache.RedisOptions{Addr: a.cfg.RedisAddr})
				defer rc.Close()
				n, err = rc.Clear(cmd.Context())
			default:
				var fc *cache.Cache
				if fc, err = cache.New(a.cfg.CacheDir); err == nil {
					n, err = fc.Clear()
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached months.\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := cache.New(a.cfg.CacheDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fc.Dir())
			return nil
		},
	})

	return cmd
}
