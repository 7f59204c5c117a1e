package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/filehandler"
)

// Publisher copies a crop somewhere the dashboard can fetch it and returns
// the URL to put in the report.
type Publisher interface {
	Publish(ctx context.Context, cropPath string) (string, error)
}

// publishName returns detection_{unixMillis}_{suffix}{ext}. Only supported
// image extensions are kept; anything else becomes .png.
func publishName(cropPath string, now time.Time, suffix string) (string, string) {
	ext := strings.ToLower(filepath.Ext(cropPath))
	if !filehandler.IsImage(ext) {
		ext = ".png"
	}
	mimeType, _ := filehandler.GetMIMEType(ext)
	return fmt.Sprintf("detection_%d_%s%s", now.UnixMilli(), suffix, ext), mimeType
}

// randomSuffix separates crops published within the same millisecond.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// LocalPublisher copies crops into the dashboard's static detections folder.
type LocalPublisher struct {
	Dir       string
	URLPrefix string
	now       func() time.Time
	suffix    func() string
}

// NewLocalPublisher serves crops from dir under urlPrefix (default "/detections").
func NewLocalPublisher(dir, urlPrefix string) *LocalPublisher {
	if urlPrefix == "" {
		urlPrefix = "/detections"
	}
	return &LocalPublisher{
		Dir:       dir,
		URLPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
		suffix:    randomSuffix,
	}
}

func (p *LocalPublisher) Publish(_ context.Context, cropPath string) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create detections dir: %w", err)
	}
	name, _ := publishName(cropPath, p.now(), p.suffix())
	dst := filepath.Join(p.Dir, name)
	if err := copyFile(cropPath, dst); err != nil {
		return "", fmt.Errorf("publish crop: %w", err)
	}
	log.Debug().Str("src", cropPath).Str("dst", dst).Msg("Crop published locally")
	return p.URLPrefix + "/" + name, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// s3PutAPI is the subset of *s3.Client used for uploads.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3PresignAPI is the subset of *s3.PresignClient used for GET URLs.
type s3PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Publisher uploads crops to a bucket and hands the dashboard a presigned
// GET URL.
type S3Publisher struct {
	client    s3PutAPI
	presigner s3PresignAPI
	bucket    string
	prefix    string
	expiry    time.Duration
	now       func() time.Time
	suffix    func() string
}

// DefaultPresignExpiry bounds how long a published crop URL stays valid.
const DefaultPresignExpiry = 24 * time.Hour

// NewS3Publisher uploads under prefix (default "detections") in bucket.
func NewS3Publisher(client *s3.Client, bucket, prefix string) *S3Publisher {
	return newS3Publisher(client, s3.NewPresignClient(client), bucket, prefix)
}

func newS3Publisher(client s3PutAPI, presigner s3PresignAPI, bucket, prefix string) *S3Publisher {
	if prefix == "" {
		prefix = "detections"
	}
	return &S3Publisher{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		expiry:    DefaultPresignExpiry,
		now:       time.Now,
		suffix:    randomSuffix,
	}
}

func (p *S3Publisher) Publish(ctx context.Context, cropPath string) (string, error) {
	name, contentType := publishName(cropPath, p.now(), p.suffix())
	key := path.Join(p.prefix, name)

	f, err := os.Open(cropPath)
	if err != nil {
		return "", fmt.Errorf("failed to open crop: %w", err)
	}
	defer f.Close()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload crop to S3: %w", err)
	}

	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = p.expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}

	log.Info().Str("bucket", p.bucket).Str("key", key).Msg("Crop uploaded to S3")
	return req.URL, nil
}
