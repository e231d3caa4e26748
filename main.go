package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/pos-dashboard/config"
	"github.com/yeremiapane/pos-dashboard/utils"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pos-dashboard",
	Short: "Cashier dashboard backend: cart, checkout and order tracking",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd)
	},
	SilenceUsage: true,
}

func init() {
	utils.InitLogger()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.Flags().String("port", "", "HTTP listen port")
	rootCmd.Flags().String("backend-base-url", "", "restaurant backend base URL")
	rootCmd.Flags().String("storage-driver", "", "local storage driver: sqlite, mysql or redis")
	rootCmd.Flags().String("log-level", "", "log level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cobra.Command) error {
	v := config.New()
	for key, flag := range map[string]string{
		"port":             "port",
		"backend_base_url": "backend-base-url",
		"storage_driver":   "storage-driver",
		"log_level":        "log-level",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	utils.SetLevel(cfg.LogLevel)
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: app.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
