package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediahub/catalog/internal/auth"
	"github.com/mediahub/catalog/internal/bootstrap"
	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/config"
	"github.com/mediahub/catalog/internal/db"
	"github.com/mediahub/catalog/internal/media"
	"github.com/mediahub/catalog/internal/storage"
)

// NewSweepCommand runs one provisional object sweep and prints the report.
func NewSweepCommand() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired provisional objects that no video references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := bootstrap.NewLogger(cfg)
			if !cmd.Flags().Changed("grace") {
				grace = cfg.Sweep.Grace
			}

			ctx, cancel := cmdContext(cmd, cfg.Sweep.Timeout)
			defer cancel()

			st, err := bootstrap.OpenStore(ctx, cfg.Store, logger)
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			defer st.Close(ctx)

			objects, err := bootstrap.OpenStorage(ctx, cfg.Storage, logger)
			if err != nil {
				return fmt.Errorf("open object storage: %w", err)
			}

			report, err := storage.NewSweeper(objects, st, grace, nil, logger).Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d provisional=%d confirmed=%d deleted=%d\n",
				report.Scanned, report.Provisional, report.Confirmed, report.Deleted)
			return err
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "minimum age of a provisional object before it is deleted")

	return cmd
}

// NewTokenCommand issues a bearer token for an owner id.
func NewTokenCommand() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !catalog.ValidID(subject) {
				return errors.New("--sub must be a 24-character hex owner id")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "owner id to embed as the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}

// NewMigrateCommand applies the Postgres schema migrations.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StorePostgres {
				return fmt.Errorf("migrations only apply to the %q driver, configured driver is %q",
					config.StorePostgres, cfg.Store.Driver)
			}
			return db.Migrate(cmd.Context(), cfg.Store.DatabaseURL, bootstrap.NewLogger(cfg))
		},
	}
}

// NewProbeCommand prints the ffprobe summary of a local video file.
func NewProbeCommand() *cobra.Command {
	var bin string

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show duration and video streams of a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd, time.Minute)
			defer cancel()

			res, err := (&media.LocalProber{Bin: bin}).Probe(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "duration: %.3fs\n", res.Duration.Seconds())
			for i, s := range res.VideoStreams {
				fmt.Fprintf(out, "stream %d: %s %dx%d @ %.2f fps\n", i, s.Codec, s.Width, s.Height, s.FrameRate)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bin, "ffprobe", "ffprobe", "path to the ffprobe binary")

	return cmd
}
