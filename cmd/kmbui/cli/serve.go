package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kmbui/kmbui-backend/internal/server"
	"github.com/kmbui/kmbui-backend/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the KMBUI API server",
		Long:  "Start the HTTP server that exposes the content API and the key issuance workflow.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fileCfg := loadFileConfig()

	logLevel := slog.LevelInfo
	if dev || fileCfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if fileCfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "driver", storeConfig().Driver)

	admins, err := st.ListAdmins(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin accounts", "error", err)
	}
	if len(admins) == 0 {
		logger.Warn("no admin account found - run: kmbui admin create")
	}

	authSvc := service.NewAuthService(st)
	keySvc := service.NewKeyRequestService(st, logger)

	corsOrigins := fileCfg.Server.CORS.Origins
	if len(corsOrigins) == 0 || dev {
		corsOrigins = []string{"*"}
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: fileCfg.Server.ShutdownTimeoutDuration(),
		CORSOrigins:     corsOrigins,
	}

	srv := server.New(srvCfg, st, authSvc, keySvc, logger)

	fmt.Printf("→ %s %s\n", server.APIName, server.APIVersion)
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
