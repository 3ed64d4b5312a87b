package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// mockRoundTripper is a fake S3 bucket covering Put, Get, Delete and ListObjectsV2.
type mockRoundTripper struct {
	mu    sync.Mutex
	state map[string][]byte
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range m.state {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("<?xml version=\"1.0\"?><ListBucketResult><IsTruncated>false</IsTruncated>")
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.state[k]))
		}
		b.WriteString("</ListBucketResult>")
		return response(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}}), nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.state[key] = body
		return response(http.StatusOK, nil, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		body, ok := m.state[key]
		if !ok {
			return response(http.StatusNotFound, nil, http.Header{}), nil
		}
		return response(http.StatusOK, body, http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Content-Type":   {"application/json"},
		}), nil
	case http.MethodDelete:
		delete(m.state, key)
		return response(http.StatusNoContent, nil, http.Header{}), nil
	}
	return response(http.StatusNotImplemented, nil, http.Header{}), nil
}

func response(code int, body []byte, h http.Header) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(body)), Header: h}
}

// decodeChunked unwraps a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	size, err := strconv.ParseInt(strings.SplitN(parts[0], ";", 2)[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newMockS3(t *testing.T) (*S3Persister, *mockRoundTripper) {
	t.Helper()
	rt := &mockRoundTripper{state: make(map[string][]byte)}
	p, err := newS3Persister(context.Background(), S3Config{
		Bucket:          "mock-bucket",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, &http.Client{Transport: rt})
	if err != nil {
		t.Fatal(err)
	}
	return p, rt
}

func TestS3Persister(t *testing.T) {
	p, rt := newMockS3(t)
	exercise(t, p)

	ctx := context.Background()
	if err := p.Save(ctx, Snapshot{StoreID: "todos", State: []any{"x"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := rt.state["storex/todos.json"]; !ok {
		t.Errorf("expected object under default prefix, have %v", keys(rt.state))
	}

	ids, err := p.StoreIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "todos" {
		t.Errorf("store IDs %v, want [todos]", ids)
	}
}

func TestS3ConfigFromEnv(t *testing.T) {
	t.Setenv("STOREX_S3_BUCKET", "")
	if _, err := S3ConfigFromEnv(); err == nil {
		t.Fatal("expected error without bucket")
	}

	t.Setenv("STOREX_S3_BUCKET", "snaps")
	t.Setenv("STOREX_S3_PATH_STYLE", "TRUE")
	t.Setenv("STOREX_S3_PREFIX", "app/")
	cfg, err := S3ConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bucket != "snaps" || !cfg.PathStyle || cfg.Prefix != "app/" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestNewS3PersisterRequiresBucket(t *testing.T) {
	if _, err := NewS3Persister(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
