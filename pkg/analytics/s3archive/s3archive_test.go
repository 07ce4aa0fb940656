package s3archive_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/analytics/s3archive"
)

type object struct {
	body     []byte
	modified time.Time
}

// fakeS3 keeps objects in memory and pages listings two keys at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
	putErr  error
	deletes int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string]object)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = object{body: body, modified: time.Now()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		_, _ = fmt.Sscan(tok, &start)
	}
	end := min(start+2, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(f.objects[k].modified)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprint(end))
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	for _, o := range in.Delete.Objects {
		delete(f.objects, aws.ToString(o.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (f *fakeS3) age(key string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.objects[key]
	o.modified = o.modified.Add(-d)
	f.objects[key] = o
}

func entry(id string) analytics.Entry {
	return analytics.Entry{
		ID:    id,
		Kind:  analytics.KindEvent,
		Time:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Event: &analytics.EventLog{Category: "cart", Action: "add"},
	}
}

func TestArchive_Store(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	archive := s3archive.NewWithClient(fake, "bucket", "/analytics/")

	require.NoError(t, archive.Store(context.Background(), []analytics.Entry{entry("a"), entry("b")}))
	require.NoError(t, archive.Store(context.Background(), nil))

	keys := fake.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "analytics/"))
	assert.True(t, strings.HasSuffix(keys[0], ".ndjson"))

	var ids []string
	sc := bufio.NewScanner(strings.NewReader(string(fake.objects[keys[0]].body)))
	for sc.Scan() {
		var e analytics.Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		ids = append(ids, e.ID)
		assert.Equal(t, "cart", e.Event.Category)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestArchive_StoreErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing bucket", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, want: s3archive.ErrBucketNotFound},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: s3archive.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := newFakeS3()
			fake.putErr = tt.err

			err := s3archive.NewWithClient(fake, "bucket", "").Store(context.Background(), []analytics.Entry{entry("a")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestArchive_Prune(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	archive := s3archive.NewWithClient(fake, "bucket", "analytics")
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, archive.Store(ctx, []analytics.Entry{entry(fmt.Sprint(i))}))
	}
	keys := fake.keys()
	require.Len(t, keys, 5)
	for _, k := range keys[:3] {
		fake.age(k, 48*time.Hour)
	}

	n, err := archive.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, keys[3:], fake.keys())
	assert.Equal(t, 1, fake.deletes)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := s3archive.New(s3archive.Config{Bucket: "b"})
	require.ErrorIs(t, err, s3archive.ErrInvalidConfig)

	archive, err := s3archive.New(s3archive.Config{
		Bucket:    "b",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, archive)
}
