package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/config"
)

// Store uploads hero images to S3 and hands back durable public URLs.
type Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	log       zerolog.Logger
}

func NewStore(ctx context.Context, cfg config.MediaConfig, log zerolog.Logger) (*Store, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Store{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		log:       log,
	}, nil
}

// Upload stores one object under a random key, keeping the original
// extension, and returns its public URL.
func (s *Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("media/%s/%s%s",
		time.Now().UTC().Format("2006/01"),
		uuid.New().String(),
		strings.ToLower(path.Ext(filename)),
	)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload media object: %w", err)
	}

	url := s.publicURL + "/" + key
	s.log.Info().Str("key", key).Msg("media uploaded")
	return url, nil
}
