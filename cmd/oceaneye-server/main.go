package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Tirth2116/OceanEye/internal/auth"
	"github.com/Tirth2116/OceanEye/internal/awsboot"
	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/cli"
	"github.com/Tirth2116/OceanEye/internal/config"
	"github.com/Tirth2116/OceanEye/internal/dashboard"
	"github.com/Tirth2116/OceanEye/internal/httpapi"
	"github.com/Tirth2116/OceanEye/internal/jobs"
	"github.com/Tirth2116/OceanEye/internal/logging"
	"github.com/Tirth2116/OceanEye/internal/metrics"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
	"github.com/Tirth2116/OceanEye/internal/segment"
)

// Set at build time via -ldflags.
var (
	commitHash = "dev"
	buildTime  = "unknown"
)

// CLI flags
var (
	hostFlag        string
	portFlag        int
	dataDirFlag     string
	modelFlag       string
	validateKeyFlag bool
	debugFlag       bool
	originsFlag     []string
)

var rootCmd = &cobra.Command{
	Use:   "oceaneye-server",
	Short: "HTTP backend for ocean debris video and image detection",
	Long: `OceanEye Server accepts drone footage and single frames over HTTP.

Uploaded MP4 videos are handed to the external segmentation worker as
background jobs that clients poll for progress. Uploaded images run through
segmentation, cropping and Gemini classification, and every detection is
forwarded to the dashboard.

Configuration comes from the environment (optionally a .env file); flags
override it.

Examples:
  oceaneye-server
  oceaneye-server --port 8080 --data-dir /var/lib/oceaneye
  oceaneye-server --validate-key --model gemini-2.5-pro`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&hostFlag, "host", "", "Interface to listen on (default OCEANEYE_HOST or 0.0.0.0)")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Port to listen on (default PORT or 5001)")
	rootCmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Directory for uploads, outputs and crops (default OCEANEYE_DATA_DIR or ./data)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default GEMINI_MODEL or the built-in default)")
	rootCmd.Flags().BoolVar(&validateKeyFlag, "validate-key", false, "Make a test Gemini call at startup and exit if the key is rejected")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringSliceVar(&originsFlag, "cors-origin", nil, "Allowed CORS origin (repeatable, default localhost only)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	if debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	applyFlags(cfg)
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directories")
	}

	ctx := context.Background()
	clients, err := awsboot.Init(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AWS clients")
	}

	m := metrics.New()

	keys := auth.KeySources{Key: cfg.GeminiAPIKey, SSMParam: cfg.SSMAPIKeyParam}
	if ssmClient := clients.SSMClient(); ssmClient != nil {
		keys.SSM = ssmClient
	}
	classifier := cli.InitClassifier(ctx, cli.ClassifierOptions{
		Keys:     keys,
		Model:    cfg.GeminiModel,
		Validate: validateKeyFlag,
		Metrics:  m,
	})

	_, unconfigured := classifier.(classify.Unconfigured)

	segmenter := segment.Resolve(ctx, segment.Options{
		Mode:         cfg.SegmenterMode,
		InferenceURL: cfg.InferenceURL,
		ModelPath:    cfg.ModelPath,
	})

	controller := pipeline.New(segmenter, classifier, pipeline.Config{
		CropsDir: cfg.CropsDir(),
		Padding:  cfg.CropPadding,
	}, m)

	dashClient := dashboard.NewClient(cfg.DashboardURL, m)
	publisher := clients.Publisher(cfg)
	forwarder := dashboard.NewForwarder(dashClient, publisher)

	worker := jobs.WorkerCommand{
		Interpreter: cfg.PythonBin,
		Script:      cfg.WorkerScript,
		ModelPath:   cfg.ModelPath,
	}
	if err := worker.Validate(); err != nil {
		// Submissions will fail with a spawn error until this is fixed.
		log.Warn().Err(err).Msg("Video worker is not runnable")
	}
	supervisor := jobs.NewSupervisor(jobs.NewRegistry(), jobs.ExecLauncher{}, jobs.SupervisorConfig{
		OutputsDir: cfg.OutputsDir(),
		TailLines:  cfg.LogTailLines,
		Worker:     worker,
	}, m)

	server := httpapi.New(supervisor, controller, forwarder, dashClient, httpapi.Config{
		UploadsDir:     cfg.UploadsDir(),
		OutputsDir:     cfg.OutputsDir(),
		AllowedOrigins: originsFlag,
	}, m)

	logging.NewStartupLogger("oceaneye-server").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Directory("uploads", cfg.UploadsDir()).
		Directory("outputs", cfg.OutputsDir()).
		Directory("crops", cfg.CropsDir()).
		Directory("detections", cfg.DetectionsDir).
		S3Bucket("crops", cfg.CropBucket).
		DynamoTable("seen", cfg.SeenTable).
		SSMParam("geminiApiKey", cfg.SSMAPIKeyParam).
		Service("dashboard", dashClient.BaseURL()).
		Service("inference", cfg.InferenceURL).
		Feature("gemini", !unconfigured).
		Feature("awsClients", clients != nil).
		Config("segmenter", segmenter.Name()).
		Config("classifier", classifier.Name()).
		Config("worker", strings.TrimSpace(cfg.PythonBin+" "+cfg.WorkerScript)).
		Config("addr", cfg.Addr()).
		InitDuration(time.Since(initStart)).
		Log()

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Handler(),
		// Video uploads can be large; the write timeout also covers range
		// requests for the annotated output.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", cfg.Addr()).Msg("Starting web server")
	fmt.Printf("\n  OceanEye backend: http://localhost:%d\n\n", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cfg *config.Config) {
	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}
}
