package s3

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 项目文件的对象存储镜像
type S3 struct {
	Endpoint string
	Region   string
	Bucket   string
	ak       string
	sk       string

	pathStyle bool
	cli       *s3.Client
}

type Option func(s *S3)

// WithPathStyle MinIO 等自建服务需要 endpoint/bucket 形式的地址
func WithPathStyle(enabled bool) Option {
	return func(s *S3) {
		s.pathStyle = enabled
	}
}

func NewS3Client(endpoint, region, bucket, ak, sk string, opts ...Option) (*S3, error) {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}
	for _, apply := range opts {
		apply(cli)
	}

	if _, err := cli.DefaultConfig(context.Background()); err != nil {
		return nil, err
	}
	return cli, nil
}

func (s *S3) DefaultConfig(ctx context.Context) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
	}
	if s.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:           s.Endpoint,
					SigningRegion: s.Region,
				}, nil
			})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.pathStyle
	})
	return cfg, nil
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

func (s *S3) Upload(ctx context.Context, key string, body io.Reader) error {
	uploader := manager.NewUploader(s.cli)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(normalizeKey(key)),
		Body:   body,
	})
	return err
}

// Download 本地文件丢失时从镜像恢复
func (s *S3) Download(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	return err
}

// PresignGet 生成临时下载地址
func (s *S3) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	client := s3.NewPresignClient(s.cli)
	req, err := client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(normalizeKey(key)),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
