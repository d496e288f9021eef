package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewMockForTests returns a *Store backed by an in-memory fake HTTP transport.
// Only the subset of S3 operations required by the blob Store interface is
// implemented.
func NewMockForTests() *Store {
	rt := &mockRoundTripper{state: make(map[string]mockObject)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return &Store{client: client, bucket: "mock-bucket", presign: s3.NewPresignClient(client)}
}

type mockRoundTripper struct{ state map[string]mockObject }

type mockObject struct {
	body        []byte
	contentType string
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		return m.listResponse(req.URL.Query().Get("prefix")), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := m.state[key]
		if !ok {
			return emptyResponse(http.StatusNotFound), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"ETag":           {"\"etag\""},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}}, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := decodeSingleChunk(body); ok {
			body = decoded
		}
		if _, exists := m.state[key]; !exists {
			m.state[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type")}
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodGet:
		obj, ok := m.state[key]
		if !ok {
			return emptyResponse(http.StatusNotFound), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(obj.body)), Header: http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"ETag":           {"\"etag\""},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}}, nil
	case http.MethodDelete:
		delete(m.state, key)
		return emptyResponse(http.StatusNoContent), nil
	}
	return emptyResponse(http.StatusNotImplemented), nil
}

func (m *mockRoundTripper) listResponse(prefix string) *http.Response {
	var keys []string
	for k := range m.state {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?><ListBucketResult><IsTruncated>false</IsTruncated>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.state[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(b.String())), Header: http.Header{"Content-Type": {"application/xml"}}}
}

func emptyResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
}

// decodeSingleChunk unwraps a minimal single-chunk aws-chunked payload:
// <hex>\r\n<body>\r\n0\r\n...
func decodeSingleChunk(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	size, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}
