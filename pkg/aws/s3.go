package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/hive"
)

// LocationChecker verifies that the S3 locations of a target are
// reachable with its credentials.
type LocationChecker struct {
	api    s3iface.S3API
	logger log.FieldLogger
}

func NewLocationChecker(logger log.FieldLogger, api s3iface.S3API) *LocationChecker {
	return &LocationChecker{
		api:    api,
		logger: logger.WithField("component", "s3"),
	}
}

// CheckInput verifies the billing export location can be listed. An empty
// prefix is not an error.
func (c *LocationChecker) CheckInput(ctx context.Context, location string) error {
	bucket, prefix, err := hive.ParseS3Location(location)
	if err != nil {
		return err
	}
	out, err := c.api.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return wrapError(fmt.Sprintf("list %s", location), err)
	}
	c.logger.WithField("location", location).Debugf("input location listed, %d keys found", len(out.Contents))
	return nil
}

// CheckOutput verifies the bucket of the query output location exists and
// is accessible.
func (c *LocationChecker) CheckOutput(ctx context.Context, location string) error {
	bucket, _, err := hive.ParseS3Location(location)
	if err != nil {
		return err
	}
	if _, err := c.api.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return wrapError(fmt.Sprintf("head bucket %s", bucket), err)
	}
	return nil
}
