package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

// Options configures the clients created for a target.
type Options struct {
	// WorkGroup is the Athena work group queries run in. Empty uses the
	// account's primary work group.
	WorkGroup string
	// Endpoint overrides the service endpoint, mostly for testing.
	Endpoint string
}

// Clients holds the Athena engine and S3 location checker of one target.
type Clients struct {
	Athena  *Athena
	Checker *LocationChecker
}

// NewSession returns a session authenticated with the credentials of t.
func NewSession(t targets.Target, opts Options) (*session.Session, error) {
	cfg := aws.NewConfig().
		WithRegion(t.Region).
		WithCredentials(t.AWSCreds())
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session for target %s: %w", t.Name, err)
	}
	return sess, nil
}

// NewClients creates the AWS clients for t.
func NewClients(logger log.FieldLogger, t targets.Target, opts Options) (*Clients, error) {
	sess, err := NewSession(t, opts)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Athena:  NewAthena(logger, athena.New(sess), opts.WorkGroup),
		Checker: NewLocationChecker(logger, s3.New(sess)),
	}, nil
}
