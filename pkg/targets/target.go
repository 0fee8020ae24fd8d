package targets

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/credentials"
)

// Target is a named billing account configuration within a project. The
// JSON names match the layout of the credential store.
type Target struct {
	ProjectID      string `json:"projectId"`
	Name           string `json:"targetName"`
	AccessKey      string `json:"accessKey"`
	SecretKey      string `json:"secretKey"`
	Region         string `json:"region"`
	InputLocation  string `json:"cururl"`
	OutputLocation string `json:"output"`
}

// Update is a partial change to a Target. Nil fields are left unchanged.
// The name of a target cannot be changed.
type Update struct {
	AccessKey      *string `json:"accessKey,omitempty"`
	SecretKey      *string `json:"secretKey,omitempty"`
	Region         *string `json:"region,omitempty"`
	InputLocation  *string `json:"cururl,omitempty"`
	OutputLocation *string `json:"output,omitempty"`
}

func (u Update) Empty() bool {
	return u == Update{}
}

// Apply returns t with the fields set in u replaced.
func (t Target) Apply(u Update) Target {
	if u.AccessKey != nil {
		t.AccessKey = *u.AccessKey
	}
	if u.SecretKey != nil {
		t.SecretKey = *u.SecretKey
	}
	if u.Region != nil {
		t.Region = *u.Region
	}
	if u.InputLocation != nil {
		t.InputLocation = *u.InputLocation
	}
	if u.OutputLocation != nil {
		t.OutputLocation = *u.OutputLocation
	}
	return t
}

// Restore returns the Update that turns any target with t's name back into
// t.
func (t Target) Restore() Update {
	return Update{
		AccessKey:      &t.AccessKey,
		SecretKey:      &t.SecretKey,
		Region:         &t.Region,
		InputLocation:  &t.InputLocation,
		OutputLocation: &t.OutputLocation,
	}
}

// Validate checks the fields needed to query a target are present.
func (t Target) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"targetName", t.Name},
		{"accessKey", t.AccessKey},
		{"secretKey", t.SecretKey},
		{"region", t.Region},
		{"cururl", t.InputLocation},
		{"output", t.OutputLocation},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) != 0 {
		return fmt.Errorf("target is missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AWSCreds returns credentials used to authenticate with AWS.
func (t Target) AWSCreds() *credentials.Credentials {
	return credentials.NewStaticCredentials(t.AccessKey, t.SecretKey, "")
}
