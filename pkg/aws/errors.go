package aws

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/kube-reporting/cost-explorer/pkg/engine"
)

var errMissingStatus = errors.New("response has no query status")

var accessDeniedCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"Forbidden":                   true,
	"UnrecognizedClientException": true,
	"InvalidSignatureException":   true,
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
}

var notFoundCodes = map[string]bool{
	s3.ErrCodeNoSuchBucket: true,
	s3.ErrCodeNoSuchKey:    true,
	"NotFound":             true,
}

// wrapError annotates err with op and wraps engine.ErrAccessDenied or
// engine.ErrLocationNotFound when the AWS error code calls for it.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch {
		case accessDeniedCodes[aerr.Code()]:
			return fmt.Errorf("%s: %w: %w", op, err, engine.ErrAccessDenied)
		case notFoundCodes[aerr.Code()]:
			return fmt.Errorf("%s: %w: %w", op, err, engine.ErrLocationNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
