package provision

import (
	"fmt"
	"strings"
)

// Step names one provisioning statement.
type Step string

const (
	StepCheckLocations Step = "check locations"
	StepCheckDatabase  Step = "check database"
	StepCreateDatabase Step = "create database"
	StepDropTable      Step = "drop table"
	StepCreateTable    Step = "create table"
	StepLoadPartitions Step = "load partitions"
	StepVerifyData     Step = "verify data"
)

var stepPermissions = map[Step][]string{
	StepCheckLocations: {"s3:ListBucket", "s3:GetObject", "s3:GetBucketLocation", "s3:PutObject"},
	StepCheckDatabase:  {"athena:StartQueryExecution", "athena:GetQueryExecution", "athena:GetQueryResults", "glue:GetDatabases", "s3:PutObject"},
	StepCreateDatabase: {"athena:StartQueryExecution", "glue:CreateDatabase", "glue:GetDatabase"},
	StepDropTable:      {"athena:StartQueryExecution", "glue:GetTable", "glue:DeleteTable"},
	StepCreateTable:    {"athena:StartQueryExecution", "glue:CreateTable", "glue:GetTable", "s3:GetBucketLocation"},
	StepLoadPartitions: {"athena:StartQueryExecution", "glue:GetPartitions", "glue:BatchCreatePartition", "s3:ListBucket", "s3:GetObject"},
	StepVerifyData:     {"athena:StartQueryExecution", "athena:GetQueryResults", "s3:ListBucket", "s3:GetObject", "s3:PutObject"},
}

// RequiredPermissions returns the minimal IAM actions step needs.
func (s Step) RequiredPermissions() []string {
	return append([]string(nil), stepPermissions[s]...)
}

// PermissionError is returned when a step was rejected for lack of access.
type PermissionError struct {
	Step                Step
	RequiredPermissions []string
	Err                 error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied during %s (requires %s): %v", e.Step, strings.Join(e.RequiredPermissions, ", "), e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// SetupError is returned when a step failed for any reason other than
// access control.
type SetupError struct {
	Step Step
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Step, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
