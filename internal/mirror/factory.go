package mirror

import (
	"context"
	"fmt"
	"os"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// Environment variables holding static S3 credentials.
const (
	EnvS3AccessKeyID     = "ZS_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "ZS_S3_SECRET_ACCESS_KEY"
)

// NewMirrorFromConfig creates a Mirror based on the mirror config type.
// Type "none" (or empty) returns a nil Mirror.
func NewMirrorFromConfig(ctx context.Context, cfg config.MirrorConfig) (zs.Mirror, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryMirror(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem mirror requires fs_root to be set")
		}
		return NewFileSystemMirror(cfg.FSRoot)
	case "s3":
		return NewS3Mirror(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		})
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
