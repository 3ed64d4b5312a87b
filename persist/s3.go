package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds construction parameters for S3Persister.
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string // object key prefix, default "storex/"
	Endpoint        string // optional; custom endpoint such as MinIO
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// Environment variables:
//
//	STOREX_S3_BUCKET=<bucket> (required)
//	STOREX_S3_REGION=<region> (default us-east-1)
//	STOREX_S3_PREFIX=<prefix> (default storex/)
//	STOREX_S3_ENDPOINT=<url> (optional, for MinIO)
//	STOREX_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// S3ConfigFromEnv reads S3Config from the process environment.
func S3ConfigFromEnv() (S3Config, error) {
	bucket := os.Getenv("STOREX_S3_BUCKET")
	if bucket == "" {
		return S3Config{}, errors.New("STOREX_S3_BUCKET required for s3 persister")
	}
	return S3Config{
		Bucket:    bucket,
		Region:    os.Getenv("STOREX_S3_REGION"),
		Prefix:    os.Getenv("STOREX_S3_PREFIX"),
		Endpoint:  os.Getenv("STOREX_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("STOREX_S3_PATH_STYLE"), "true"),
	}, nil
}

// S3Persister stores each snapshot as a JSON object at <prefix><storeID>.json.
type S3Persister struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Persister creates an S3Persister from cfg.
func NewS3Persister(ctx context.Context, cfg S3Config) (*S3Persister, error) {
	return newS3Persister(ctx, cfg, nil)
}

// newS3Persister lets tests swap the HTTP client.
func newS3Persister(ctx context.Context, cfg S3Config, httpClient *http.Client) (*S3Persister, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if httpClient != nil {
			o.HTTPClient = httpClient
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "storex/"
	}
	return &S3Persister{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (p *S3Persister) key(storeID string) string {
	return p.prefix + storeID + ".json"
}

func (p *S3Persister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateStoreID(snapshot.StoreID); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	key := p.key(snapshot.StoreID)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &p.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (p *S3Persister) Load(ctx context.Context, storeID string) (Snapshot, error) {
	if err := validateStoreID(storeID); err != nil {
		return Snapshot{}, err
	}
	key := p.key(storeID)
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &p.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return Snapshot{}, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
		}
		return Snapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snap.StoreID = storeID
	return snap, nil
}

func (p *S3Persister) Delete(ctx context.Context, storeID string) error {
	if err := validateStoreID(storeID); err != nil {
		return err
	}
	key := p.key(storeID)
	if _, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &p.bucket, Key: &key}); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// StoreIDs lists stores with a saved snapshot under the prefix, sorted.
func (p *S3Persister) StoreIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &p.bucket,
			Prefix:            &p.prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p.prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, p.prefix)
			if id, ok := strings.CutSuffix(name, ".json"); ok && id != "" {
				ids = append(ids, id)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(ids)
	return ids, nil
}

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
