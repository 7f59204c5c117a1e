package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Tirth2116/OceanEye/internal/awsboot"
	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/config"
	"github.com/Tirth2116/OceanEye/internal/dashboard"
	"github.com/Tirth2116/OceanEye/internal/logging"
)

// CLI flags
var (
	dashboardURLFlag string
	debugFlag        bool

	confidenceFlag int
	locationFlag   string
	sizeFlag       string
)

var validSizes = []string{"Small", "Medium", "Large"}

var rootCmd = &cobra.Command{
	Use:   "detections",
	Short: "Send or clear detections on the OceanEye dashboard",
	Long: `Detections talks to the dashboard's /api/detections endpoint directly,
without running the detection pipeline.

Examples:
  detections send .trash_crops/crop_0_137_90.png '{"label":"Plastic bottle","threat_level":"High"}'
  detections send crop.png analysis.json --location "Zone B-2" --size Large
  detections clear --dashboard-url http://localhost:3000`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
		if debugFlag {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <crop-image> <analysis-json | analysis-file>",
	Short: "Publish a crop and report it as one detection",
	Args:  cobra.ExactArgs(2),
	Run:   runSend,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every detection from the dashboard",
	Args:  cobra.NoArgs,
	Run:   runClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dashboardURLFlag, "dashboard-url", "", "Dashboard base URL (default DASHBOARD_URL or http://localhost:3000)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	sendCmd.Flags().IntVar(&confidenceFlag, "confidence", dashboard.DefaultConfidence, "Detection confidence (0-100)")
	sendCmd.Flags().StringVar(&locationFlag, "location", dashboard.DefaultLocation, "Detection location or zone")
	sendCmd.Flags().StringVar(&sizeFlag, "size", dashboard.DefaultSize, "Object size: Small, Medium or Large")

	rootCmd.AddCommand(sendCmd, clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if dashboardURLFlag != "" {
		cfg.DashboardURL = dashboardURLFlag
	}
	return cfg
}

func runSend(cmd *cobra.Command, args []string) {
	cropPath := args[0]
	if info, err := os.Stat(cropPath); err != nil || info.IsDir() {
		log.Fatal().Str("path", cropPath).Msg("Crop image not found")
	}

	analysis, err := loadAnalysis(args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid analysis JSON")
	}
	report, err := buildReport(analysis, confidenceFlag, locationFlag, sizeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid report options")
	}

	cfg := loadConfig()
	ctx := context.Background()
	clients, err := awsboot.Init(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AWS clients")
	}

	url, err := clients.Publisher(cfg).Publish(ctx, cropPath)
	if err != nil {
		log.Fatal().Err(err).Str("crop", cropPath).Msg("Failed to publish crop")
	}
	fmt.Printf("Image available at: %s\n", url)
	report.Image = url

	client := dashboard.NewClient(cfg.DashboardURL, nil)
	if err := client.Send(ctx, report); err != nil {
		log.Fatal().Err(err).Str("dashboard", client.BaseURL()).Msg("Failed to send detection")
	}
	fmt.Printf("Detection sent: %s\n", report.TrashType)
}

func runClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	client := dashboard.NewClient(cfg.DashboardURL, nil)
	if err := client.Clear(context.Background()); err != nil {
		log.Fatal().Err(err).Str("dashboard", client.BaseURL()).Msg("Failed to clear detections")
	}
	fmt.Println("All detections cleared.")
}

// loadAnalysis accepts either a JSON document or the path of a file holding one.
func loadAnalysis(arg string) (classify.Analysis, error) {
	raw := arg
	if !strings.HasPrefix(strings.TrimSpace(arg), "{") {
		data, err := os.ReadFile(arg)
		if err != nil {
			return classify.Analysis{}, err
		}
		raw = string(data)
	}
	return classify.ParseAnalysis(raw)
}

func buildReport(a classify.Analysis, confidence int, location, size string) (dashboard.Report, error) {
	if confidence < 0 || confidence > 100 {
		return dashboard.Report{}, fmt.Errorf("confidence %d outside 0-100", confidence)
	}
	if !slices.Contains(validSizes, size) {
		return dashboard.Report{}, errors.New("size must be one of " + strings.Join(validSizes, ", "))
	}
	report := dashboard.NewReport(a, "", location)
	report.Confidence = confidence
	report.Size = size
	return report, nil
}
