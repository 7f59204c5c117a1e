package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Tirth2116/OceanEye/internal/auth"
	"github.com/Tirth2116/OceanEye/internal/awsboot"
	"github.com/Tirth2116/OceanEye/internal/cli"
	"github.com/Tirth2116/OceanEye/internal/config"
	"github.com/Tirth2116/OceanEye/internal/dedup"
	"github.com/Tirth2116/OceanEye/internal/logging"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
	"github.com/Tirth2116/OceanEye/internal/segment"
)

// CLI flags
var (
	thresholdFlag  float64
	seenStoreFlag  string
	apiKeyFlag     string
	apiKeyFileFlag string
	cropsDirFlag   string
	modelFlag      string
	debugFlag      bool
	resetFlag      bool
	jsonFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "trash-analyzer <image>",
	Short: "Find and classify debris in one image, skipping objects already seen",
	Long: `Trash Analyzer segments an image, computes each object's centroid and
compares it with the centroids recorded by earlier runs. Objects farther than
the threshold from every recorded centroid are cropped, classified with
Gemini and recorded; the rest are skipped.

The seen store is a JSON file by default. Set OCEANEYE_SEEN_TABLE to keep it in
DynamoDB instead.

Examples:
  trash-analyzer frame.jpg
  trash-analyzer frame.jpg --threshold 25 --seen-store /tmp/seen.json
  trash-analyzer frame.jpg --debug --crops-dir .trash_crops
  trash-analyzer frame.jpg --reset --json`,
	Args: cobra.ExactArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().Float64Var(&thresholdFlag, "threshold", dedup.DefaultThreshold, "Centroid distance threshold in pixels (default OCEANEYE_DEDUP_THRESHOLD or 40)")
	rootCmd.Flags().StringVar(&seenStoreFlag, "seen-store", "", "Path to the seen-object store; TRASH_SEEN_STORE overrides it (default trash_seen.json)")
	rootCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	rootCmd.Flags().StringVar(&apiKeyFileFlag, "api-key-file", "", "File containing the Gemini API key")
	rootCmd.Flags().StringVar(&cropsDirFlag, "crops-dir", ".trash_crops", "Directory for object crops")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&resetFlag, "reset", false, "Forget every previously seen object before analysing")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
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

	imagePath, err := cli.ResolveImagePath(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid image")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}
	threshold := cfg.DedupThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = thresholdFlag
	}
	storePath := cfg.ResolveSeenStore(seenStoreFlag)

	ctx := context.Background()
	clients, err := awsboot.Init(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AWS clients")
	}

	keys := auth.KeySources{Key: apiKeyFlag, KeyFile: apiKeyFileFlag, SSMParam: cfg.SSMAPIKeyParam}
	if ssmClient := clients.SSMClient(); ssmClient != nil {
		keys.SSM = ssmClient
	}
	classifier := cli.InitClassifier(ctx, cli.ClassifierOptions{Keys: keys, Model: cfg.GeminiModel})

	segmenter := segment.Resolve(ctx, segment.Options{
		Mode:         cfg.SegmenterMode,
		InferenceURL: cfg.InferenceURL,
		ModelPath:    cfg.ModelPath,
	})

	store := clients.SeenStore(cfg, storePath)
	if resetFlag {
		if err := store.Save(ctx, nil); err != nil {
			log.Fatal().Err(err).Str("store", store.Describe()).Msg("Failed to reset seen store")
		}
		log.Info().Str("store", store.Describe()).Msg("Seen store reset")
	}
	tracker := dedup.NewTracker(store, threshold, nil)

	controller := pipeline.New(segmenter, classifier, pipeline.Config{
		CropsDir: cropsDirFlag,
		Padding:  cfg.CropPadding,
	}, nil)

	logging.NewStartupLogger("trash-analyzer").
		Directory("crops", cropsDirFlag).
		DynamoTable("seen", cfg.SeenTable).
		Service("inference", cfg.InferenceURL).
		Config("seenStore", store.Describe()).
		Config("segmenter", segmenter.Name()).
		Config("classifier", classifier.Name()).
		Config("threshold", fmt.Sprintf("%g", threshold)).
		InitDuration(time.Since(initStart)).
		Log()

	result, err := controller.Analyze(ctx, imagePath, tracker)
	if err != nil {
		log.Fatal().Err(err).Str("image", imagePath).Msg("Analysis failed")
	}

	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
		return
	}
	printResult(result)
}

func printResult(result *pipeline.AnalyzeResult) {
	switch {
	case result.Masks == 0:
		fmt.Println("No objects detected.")
	case len(result.Detections) == 0:
		fmt.Println("No new objects found.")
	default:
		for _, det := range result.Detections {
			cli.PrintDetection(os.Stdout, det)
		}
	}
}
