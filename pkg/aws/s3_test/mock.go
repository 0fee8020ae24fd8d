package s3_test

import (
	"bytes"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func NewMockS3() *MockS3 {
	return &MockS3{
		buckets: map[string]map[string][]byte{},
		denied:  map[string]bool{},
	}
}

// MockS3 mimics an S3 blob store for testing. Calls against a denied
// bucket fail with AccessDenied.
type MockS3 struct {
	sync.RWMutex
	buckets map[string]map[string][]byte
	denied  map[string]bool
	s3iface.S3API
}

func (m *MockS3) NewBucket(name string) {
	m.Lock()
	defer m.Unlock()
	m.buckets[name] = map[string][]byte{}
}

// Deny makes every call against bucket fail with AccessDenied.
func (m *MockS3) Deny(bucket string) {
	m.Lock()
	defer m.Unlock()
	m.denied[bucket] = true
}

func (m *MockS3) bucket(name string) (map[string][]byte, error) {
	if m.denied[name] {
		return nil, awserr.New("AccessDenied", "Access Denied", nil)
	}
	bucket, ok := m.buckets[name]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "The specified bucket does not exist", nil)
	}
	return bucket, nil
}

func (m *MockS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	data, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.Lock()
	defer m.Unlock()
	bucket, err := m.bucket(*in.Bucket)
	if err != nil {
		return nil, err
	}
	bucket[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *MockS3) GetObject(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()
	bucket, err := m.bucket(*in.Bucket)
	if err != nil {
		return nil, err
	}
	data, ok := bucket[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{
		Body: ioutil.NopCloser(bytes.NewBuffer(data)),
	}, nil
}

func (m *MockS3) ListObjectsV2WithContext(ctx aws.Context, in *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error) {
	m.RLock()
	defer m.RUnlock()
	bucket, err := m.bucket(*in.Bucket)
	if err != nil {
		return nil, err
	}

	var keys []string
	for key := range bucket {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if max := int(aws.Int64Value(in.MaxKeys)); max > 0 && len(keys) > max {
		keys = keys[:max]
	}

	out := new(s3.ListObjectsV2Output)
	for _, key := range keys {
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(key)})
	}
	out.SetKeyCount(int64(len(keys)))
	return out, nil
}

func (m *MockS3) HeadBucketWithContext(ctx aws.Context, in *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
	m.RLock()
	defer m.RUnlock()
	if m.denied[*in.Bucket] {
		return nil, awserr.New("Forbidden", "Forbidden", nil)
	}
	if _, ok := m.buckets[*in.Bucket]; !ok {
		return nil, awserr.New("NotFound", "Not Found", nil)
	}
	return &s3.HeadBucketOutput{}, nil
}
