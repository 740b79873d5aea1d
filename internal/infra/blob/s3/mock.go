package s3

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // etag shape only
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	mockBucket   = "mock-bucket"
	mockPageSize = 2
	metaHeader   = "X-Amz-Meta-"
)

// NewMockForTests returns a Store whose client talks to an in-process fake
// bucket. It supports HEAD, GET, PUT, DELETE and paginated ListObjectsV2.
func NewMockForTests() *Store {
	rt := &mockTransport{objects: make(map[string]mockObject)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(DefaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return newStore(client, mockBucket)
}

type mockObject struct {
	body        []byte
	contentType string
	metadata    http.Header
	etag        string
	modified    time.Time
}

type mockTransport struct {
	mu      sync.Mutex
	objects map[string]mockObject
}

type listContents struct {
	Key          string `xml:"Key"`
	Size         int    `xml:"Size"`
	ETag         string `xml:"ETag"`
	LastModified string `xml:"LastModified"`
}

type listResult struct {
	XMLName               xml.Name       `xml:"ListBucketResult"`
	IsTruncated           bool           `xml:"IsTruncated"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	Contents              []listContents `xml:"Contents"`
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ""
	if parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2); len(parts) == 2 {
		key = parts[1]
	}
	query := req.URL.Query()
	if req.Method == http.MethodGet && query.Get("list-type") == "2" {
		return m.list(query.Get("prefix"), query.Get("continuation-token"))
	}
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, http.Header{}), nil
		}
		header := obj.metadata.Clone()
		header.Set("Content-Length", strconv.Itoa(len(obj.body)))
		header.Set("Content-Type", obj.contentType)
		header.Set("ETag", `"`+obj.etag+`"`)
		header.Set("Last-Modified", obj.modified.Format(http.TimeFormat))
		if req.Method == http.MethodHead {
			return respond(http.StatusOK, nil, header), nil
		}
		return respond(http.StatusOK, obj.body, header), nil
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if isChunked(req.Header) {
			if body, err = decodeChunked(body); err != nil {
				return nil, err
			}
		}
		meta := http.Header{}
		for name, values := range req.Header {
			if strings.HasPrefix(http.CanonicalHeaderKey(name), metaHeader) {
				meta[http.CanonicalHeaderKey(name)] = values
			}
		}
		sum := md5.Sum(body) //nolint:gosec // etag shape only
		etag := hex.EncodeToString(sum[:])
		m.objects[key] = mockObject{
			body:        body,
			contentType: req.Header.Get("Content-Type"),
			metadata:    meta,
			etag:        etag,
			modified:    time.Now().UTC().Truncate(time.Second),
		}
		return respond(http.StatusOK, nil, http.Header{"Etag": {`"` + etag + `"`}}), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return respond(http.StatusNoContent, nil, http.Header{}), nil
	}
	return respond(http.StatusNotImplemented, nil, http.Header{}), nil
}

func (m *mockTransport) list(prefix, token string) (*http.Response, error) {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > token {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var result listResult
	if len(keys) > mockPageSize {
		keys = keys[:mockPageSize]
		result.IsTruncated = true
		result.NextContinuationToken = keys[len(keys)-1]
	}
	for _, k := range keys {
		obj := m.objects[k]
		result.Contents = append(result.Contents, listContents{
			Key:          k,
			Size:         len(obj.body),
			ETag:         `"` + obj.etag + `"`,
			LastModified: obj.modified.Format(time.RFC3339),
		})
	}
	raw, err := xml.Marshal(result)
	if err != nil {
		return nil, err
	}
	return respond(http.StatusOK, raw, http.Header{"Content-Type": {"application/xml"}}), nil
}

func respond(status int, body []byte, header http.Header) *http.Response {
	return &http.Response{StatusCode: status, Header: header, Body: io.NopCloser(bytes.NewReader(body))}
}

func isChunked(h http.Header) bool {
	return strings.Contains(h.Get("Content-Encoding"), "aws-chunked") || h.Get("X-Amz-Decoded-Content-Length") != ""
}

// decodeChunked strips aws-chunked framing: "<hex>[;ext]\r\n<data>\r\n"
// repeated until a zero-size chunk, optionally followed by trailers.
func decodeChunked(b []byte) ([]byte, error) {
	var out []byte
	for {
		line, rest, ok := bytes.Cut(b, []byte("\r\n"))
		if !ok {
			return nil, fmt.Errorf("chunk header missing")
		}
		sizeField, _, _ := bytes.Cut(line, []byte(";"))
		size, err := strconv.ParseInt(string(sizeField), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size: %w", err)
		}
		if size == 0 {
			return out, nil
		}
		if int64(len(rest)) < size+2 {
			return nil, fmt.Errorf("chunk truncated")
		}
		out = append(out, rest[:size]...)
		b = rest[size+2:]
	}
}
