package hive

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	ParquetSerDe        = "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"
	ParquetInputFormat  = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"
	ParquetOutputFormat = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableParameters struct {
	Database      string   `json:"database,omitempty"`
	Name          string   `json:"name"`
	Columns       []Column `json:"columns"`
	PartitionedBy []Column `json:"partitionedBy,omitempty"`

	Location        string            `json:"location,omitempty"`
	SerDe           string            `json:"serde,omitempty"`
	SerDeProperties map[string]string `json:"serdeProperties,omitempty"`
	InputFormat     string            `json:"inputFormat,omitempty"`
	OutputFormat    string            `json:"outputFormat,omitempty"`
	TableProperties map[string]string `json:"tableProperties,omitempty"`
	External        bool              `json:"external,omitempty"`
}

// ParquetTable returns the parameters for an external table over parquet
// files stored at location.
func ParquetTable(dbName, tableName, location string, columns []Column) TableParameters {
	return TableParameters{
		Database:     dbName,
		Name:         tableName,
		Columns:      columns,
		Location:     location,
		SerDe:        ParquetSerDe,
		InputFormat:  ParquetInputFormat,
		OutputFormat: ParquetOutputFormat,
		External:     true,
	}
}

var invalidIdentifierChars = regexp.MustCompile(`[^a-z0-9_]`)

// SanitizeIdentifier turns name into something usable as an unquoted table
// or database name.
func SanitizeIdentifier(name string) string {
	return invalidIdentifierChars.ReplaceAllString(strings.ToLower(name), "_")
}

// TableName returns the database qualified name of a table.
func TableName(dbName, tableName string) string {
	if dbName == "" {
		return tableName
	}
	return dbName + "." + tableName
}

// S3Location returns the s3:// URI of a bucket and prefix, always ending
// with a slash.
func S3Location(bucket, prefix string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("bucket cannot be empty")
	}
	bucket = path.Join(bucket, prefix)
	// Ensure the bucket URL has a trailing slash
	if bucket[len(bucket)-1] != '/' {
		bucket = bucket + "/"
	}
	location := "s3://" + bucket

	locationURL, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return locationURL.String(), nil
}

// ParseS3Location splits an s3://, s3a:// or s3n:// URI into its bucket and
// key prefix.
func ParseS3Location(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 location %q: %w", location, err)
	}
	switch u.Scheme {
	case "s3", "s3a", "s3n":
	default:
		return "", "", fmt.Errorf("invalid S3 location %q: scheme must be s3", location)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: missing bucket", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// NormalizeS3Location rewrites location into the canonical s3://bucket/prefix/
// form used in table definitions.
func NormalizeS3Location(location string) (string, error) {
	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return "", err
	}
	return S3Location(bucket, prefix)
}
