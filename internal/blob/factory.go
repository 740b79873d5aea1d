package blob

import (
	"context"
	"fmt"
)

// Config selects and configures a backend. Field tags are relative to the
// MONKEYCORE_BLOB_ prefix applied by internal/config.
type Config struct {
	Driver Driver   `env:"DRIVER" envDefault:"fs"`
	FSRoot string   `env:"FS_ROOT"`
	S3     S3Config `envPrefix:"S3_"`
}

// Open returns the Store named by cfg.Driver. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
