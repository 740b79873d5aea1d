// Package archive stores complete ledger snapshots in blob storage as
// zstd-compressed JSON documents validated against an embedded schema.
package archive

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"monkeycore/internal/blob"
	"monkeycore/pkg/domain"
)

//go:embed snapshot.schema.json
var schemaJSON []byte

const (
	schemaURL = "snapshot.schema.json"
	// ContentType labels archived snapshots.
	ContentType = "application/zstd"
	// DefaultPrefix is the key prefix archives are written under.
	DefaultPrefix = "snapshots/"
	keySuffix     = ".json.zst"
)

// ErrInvalidSnapshot is returned when an archived document does not match
// the snapshot schema.
var ErrInvalidSnapshot = errors.New("archive: snapshot does not match schema")

// Ref describes a stored archive.
type Ref struct {
	Key       string    `json:"key" yaml:"key"`
	Size      int64     `json:"size_bytes" yaml:"size_bytes"`
	Version   int       `json:"version" yaml:"version"`
	Supply    int       `json:"supply" yaml:"supply"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Archive writes and reads snapshot archives.
type Archive struct {
	store  blob.Store
	prefix string
	schema *jsonschema.Schema
	now    func() time.Time
	newID  func() uuid.UUID
}

// Option configures an Archive.
type Option func(*Archive)

// WithPrefix overrides DefaultPrefix. An empty prefix keeps the default.
func WithPrefix(prefix string) Option {
	return func(a *Archive) {
		if prefix == "" {
			return
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// WithClock overrides the time used in archive keys.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// New compiles the snapshot schema and returns an archive over store.
func New(store blob.Store, opts ...Option) (*Archive, error) {
	if store == nil {
		return nil, errors.New("archive: blob store is required")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("archive: load schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("archive: compile schema: %w", err)
	}
	a := &Archive{
		store:  store,
		prefix: DefaultPrefix,
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Save validates, compresses and stores snap under a new unique key.
func (a *Archive) Save(ctx context.Context, snap domain.Snapshot) (Ref, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return Ref{}, fmt.Errorf("archive: encode snapshot: %w", err)
	}
	if err := a.validate(raw); err != nil {
		return Ref{}, err
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return Ref{}, err
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return Ref{}, fmt.Errorf("archive: compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Ref{}, fmt.Errorf("archive: compress: %w", err)
	}

	created := a.now().UTC()
	key := fmt.Sprintf("%s%s-%s%s", a.prefix, created.Format("20060102T150405.000000000Z"), a.newID(), keySuffix)
	info, err := a.store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: ContentType,
		Metadata: map[string]string{
			"version": strconv.Itoa(snap.Version),
			"supply":  strconv.Itoa(len(snap.All)),
			"next_id": strconv.FormatUint(uint64(snap.NextID), 10),
		},
	})
	if err != nil {
		return Ref{}, fmt.Errorf("archive: store %s: %w", key, err)
	}
	return Ref{Key: key, Size: info.Size, Version: snap.Version, Supply: len(snap.All), CreatedAt: created}, nil
}

// Load reads, decompresses and validates the archive stored at key.
func (a *Archive) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("archive: read %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	dec, err := zstd.NewReader(rc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("archive: decompress %s: %w", key, err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("archive: decompress %s: %w", key, err)
	}
	if err := a.validate(raw); err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("archive: decode %s: %w", key, err)
	}
	return snap, nil
}

// List returns the stored archives, oldest first.
func (a *Archive) List(ctx context.Context) ([]Ref, error) {
	infos, err := a.store.List(ctx, a.prefix)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	refs := make([]Ref, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, keySuffix) {
			continue
		}
		if info.Metadata == nil {
			// s3 listings omit user metadata
			if head, err := a.store.Head(ctx, info.Key); err == nil {
				info.Metadata = head.Metadata
			}
		}
		ref := Ref{Key: info.Key, Size: info.Size, CreatedAt: info.LastModified}
		ref.Version, _ = strconv.Atoi(info.Metadata["version"])
		ref.Supply, _ = strconv.Atoi(info.Metadata["supply"])
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, nil
}

// Latest returns the most recent archive.
func (a *Archive) Latest(ctx context.Context) (Ref, bool, error) {
	refs, err := a.List(ctx)
	if err != nil || len(refs) == 0 {
		return Ref{}, false, err
	}
	return refs[len(refs)-1], true, nil
}

// Delete removes the archive at key.
func (a *Archive) Delete(ctx context.Context, key string) (bool, error) {
	return a.store.Delete(ctx, key)
}

func (a *Archive) validate(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := a.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}
