package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/internal/config"
	"github.com/iwvelando/loan-review/internal/ratesource"
	"github.com/iwvelando/loan-review/internal/server"
	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/output"
	"github.com/iwvelando/loan-review/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, xlsx")
	outputFileFlag := flag.String("output-file", "", "xlsx output file override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	tolerance := flag.Float64("tolerance", -1, "custom tolerance thesis in percent over the reference rate (e.g. 30)")
	listModalities := flag.Bool("list-modalities", false, "list the supported credit modalities and exit")
	serve := flag.Bool("serve", false, "run the HTTP API instead of evaluating the configured contract")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	if *serve {
		runServer(*serverConfigLocation, *logLevel)
		return
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		if *listModalities {
			printModalities(ratesource.DefaultCatalog())
			return
		}
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *listModalities {
		catalog, err := ratesource.NewCatalog(conf.Rates.Series)
		if err != nil {
			logger.Fatal("invalid series overrides",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		printModalities(catalog)
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	outputFile := conf.Output.File
	if *outputFileFlag != "" {
		outputFile = *outputFileFlag
	}
	if outputFile == "" {
		outputFile = constants.DefaultXLSXFile
	}

	if *tolerance >= 0 {
		conf.SetCustomTolerance(*tolerance)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	req, err := conf.Request()
	if err != nil {
		logger.Fatal("invalid contract configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := ratesource.New(ctx, logger, conf.Rates)
	if err != nil {
		logger.Fatal("failed to configure reference rate source",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		_ = source.Close()
	}()

	report, err := abusiveness.NewComparator(logger, source).Evaluate(ctx, req)
	if err != nil {
		if errors.Is(err, abusiveness.ErrReferenceRateUnavailable) {
			logger.Fatal("cannot evaluate contract: reference rate unavailable",
				zap.String("op", "main"),
				zap.String("modality", req.Modality),
				zap.Error(err),
			)
		}
		logger.Fatal("failed to evaluate contract",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(report)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(report)
	case constants.OutputFormatJSON:
		err = output.JSONFormat(report)
	case constants.OutputFormatXLSX:
		err = output.XLSXFormat(report, outputFile)
		if err == nil {
			logger.Info(fmt.Sprintf("report written to %s", outputFile),
				zap.String("op", "main"),
			)
		}
	}
	if err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
	}
}

func printModalities(catalog *ratesource.Catalog) {
	fmt.Printf("Modality             | Series | Description\n")
	fmt.Printf("________             | ______ | ___________\n")
	for _, m := range catalog.Modalities() {
		fmt.Printf("%-20s | %-6s | %s\n", m.ID, m.SeriesCode, m.Description)
	}
}

func runServer(configPath, logLevel string) {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", configPath, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := ratesource.New(ctx, logger, cfg.Rates)
	if err != nil {
		logger.Fatal("failed to configure reference rate source",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
	defer func() {
		_ = source.Close()
	}()

	httpServer := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, source, server.Options{
			MaxBodySize:    cfg.BodySizeBytes(),
			RequestTimeout: cfg.RequestTimeout,
			Version:        version,
			Catalog:        source.Catalog(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("listening on %s", cfg.Address),
			zap.String("op", "main.runServer"),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly",
				zap.String("op", "main.runServer"),
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received",
		zap.String("op", "main.runServer"),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
}
