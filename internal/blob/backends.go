package blob

import (
	"context"

	"monkeycore/internal/infra/blob/fs"
	memorystore "monkeycore/internal/infra/blob/memory"
	infraS3 "monkeycore/internal/infra/blob/s3"
)

// S3Config configures the S3 backend.
type S3Config = infraS3.Config

// NewFilesystem stores blobs as files under root; empty root uses the
// backend default directory.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewMemory keeps blobs in process memory.
func NewMemory() Store { return memorystore.New() }

// NewS3 stores blobs in the configured bucket.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return infraS3.New(ctx, cfg) }

// NewMockS3ForTests runs the S3 backend against an in-process fake bucket.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
