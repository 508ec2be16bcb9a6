package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/pkg/storage"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether credentials were supplied.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Service stores reference files in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary. The returned key encodes the resource
// type because deletion needs it.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader) (storage.Object, error) {
	overwrite := true
	params := uploader.UploadParams{
		Folder:       path.Join(s.folder, path.Dir(key)),
		PublicID:     publicID(key),
		ResourceType: "auto",
		Overwrite:    &overwrite,
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return storage.Object{}, fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return storage.Object{
		Key: result.ResourceType + ":" + result.PublicID,
		URL: result.SecureURL,
	}, nil
}

// Delete removes the asset identified by a key returned from Upload.
func (s *Service) Delete(ctx context.Context, key string) error {
	resourceType, id, ok := strings.Cut(key, ":")
	if !ok {
		resourceType, id = "raw", key
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     id,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("failed to delete asset: %s", result.Result)
	}

	s.logger.Info().Str("public_id", id).Msg("file deleted from cloudinary")
	return nil
}

// publicID strips the extension for image and video assets; raw assets keep
// it so downloads retain their file type.
func publicID(key string) string {
	base := path.Base(key)
	switch strings.ToLower(path.Ext(base)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".mp4", ".mov":
		return strings.TrimSuffix(base, path.Ext(base))
	default:
		return base
	}
}
