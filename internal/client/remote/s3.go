package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/logging"
)

const defaultPollInterval = 5 * time.Second

// S3API is the part of *s3.Client the remote needs.
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PollInterval time.Duration
}

// S3Remote keeps each envelope as the object healthData/<syncId>.json and
// polls it, since a bucket cannot push changes.
type S3Remote struct {
	api      S3API
	bucket   string
	interval time.Duration
	logger   logging.Logger
}

// NewS3Remote builds an S3 client with static credentials and path-style
// addressing, which works against MinIO as well as AWS.
func NewS3Remote(ctx context.Context, opts S3Options, logger logging.Logger) (*S3Remote, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	return NewS3RemoteWithAPI(client, opts.Bucket, opts.PollInterval, logger), nil
}

func NewS3RemoteWithAPI(api S3API, bucket string, interval time.Duration, logger logging.Logger) *S3Remote {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &S3Remote{
		api:      api,
		bucket:   bucket,
		interval: interval,
		logger:   logger.With("module", "remote_s3"),
	}
}

func objectKey(syncID string) string {
	return common.RemotePath(syncID) + ".json"
}

func (r *S3Remote) Ping(ctx context.Context) error {
	if _, err := r.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)}); err != nil {
		return fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	return nil
}

func (r *S3Remote) Push(ctx context.Context, env models.SyncEnvelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}

	_, err = r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(objectKey(env.SyncID)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Subscribe polls the object right away and then every interval. A version
// is delivered only when its ETag differs from the last delivered one; a
// missing object is not an error.
func (r *S3Remote) Subscribe(ctx context.Context, syncID string, fn UpdateFunc) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	go func() {
		defer close(sub.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		var lastETag string
		for {
			lastETag = r.poll(ctx, syncID, lastETag, fn)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return sub, nil
}

func (r *S3Remote) poll(ctx context.Context, syncID, lastETag string, fn UpdateFunc) string {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectKey(syncID)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return lastETag
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return lastETag
		}
		fn(Update{SyncID: syncID, Err: fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)})
		return lastETag
	}
	defer out.Body.Close()

	etag := aws.ToString(out.ETag)
	if etag != "" && etag == lastETag {
		return lastETag
	}

	body, err := io.ReadAll(out.Body)
	if err != nil {
		fn(Update{SyncID: syncID, Err: fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)})
		return lastETag
	}

	fn(Update{SyncID: syncID, Payload: body})
	return etag
}

func (r *S3Remote) Close() error { return nil }
