// Package awsboot builds the AWS clients behind the optional cloud features:
// S3 crop publishing, the DynamoDB seen store and the SSM-held API key.
//
// Nothing here runs unless one of those features is configured, so a purely
// local deployment never touches the AWS credential chain.
package awsboot

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/config"
	"github.com/Tirth2116/OceanEye/internal/dashboard"
	"github.com/Tirth2116/OceanEye/internal/dedup"
)

// Clients holds the AWS SDK clients for the features that are enabled.
// Fields for disabled features are nil.
type Clients struct {
	Config   aws.Config
	SSM      *ssm.Client
	S3       *s3.Client
	DynamoDB *dynamodb.Client
}

// Needed reports whether any configured feature requires AWS.
func Needed(cfg *config.Config) bool {
	return cfg.CropBucket != "" || cfg.SeenTable != "" || (cfg.SSMAPIKeyParam != "" && cfg.GeminiAPIKey == "")
}

// Init loads the default AWS config and creates the clients cfg asks for.
// It returns nil, nil when no AWS feature is configured.
func Init(ctx context.Context, cfg *config.Config) (*Clients, error) {
	if !Needed(cfg) {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", awsCfg.Region).Msg("AWS config loaded")

	c := &Clients{Config: awsCfg}
	if cfg.SSMAPIKeyParam != "" {
		c.SSM = ssm.NewFromConfig(awsCfg)
	}
	if cfg.CropBucket != "" {
		c.S3 = s3.NewFromConfig(awsCfg)
	}
	if cfg.SeenTable != "" {
		c.DynamoDB = dynamodb.NewFromConfig(awsCfg)
	}
	return c, nil
}

// Publisher returns an S3 publisher when a crop bucket is configured, and a
// local publisher into the dashboard's detections folder otherwise.
func (c *Clients) Publisher(cfg *config.Config) dashboard.Publisher {
	if c != nil && c.S3 != nil {
		return dashboard.NewS3Publisher(c.S3, cfg.CropBucket, "")
	}
	return dashboard.NewLocalPublisher(cfg.DetectionsDir, "")
}

// SeenStore returns the DynamoDB seen store when a table is configured, and
// a JSON file store at path otherwise.
func (c *Clients) SeenStore(cfg *config.Config, path string) dedup.Store {
	if c != nil && c.DynamoDB != nil {
		return dedup.NewDynamoStore(c.DynamoDB, cfg.SeenTable, cfg.SeenSession)
	}
	return dedup.NewFileStore(path)
}

// SSMClient returns the SSM client, or nil when none was created. Callers
// must nil-check before storing it in an interface.
func (c *Clients) SSMClient() *ssm.Client {
	if c == nil {
		return nil
	}
	return c.SSM
}
