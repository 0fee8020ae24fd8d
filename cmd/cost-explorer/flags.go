package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kube-reporting/cost-explorer/pkg/billing"
)

// SetFlagsFromEnv parses all registered flags in the given flagset,
// and if they are not already set it attempts to set their values from
// environment variables. Environment variables take the name of the flag but
// are UPPERCASE, and any dashes are replaced by underscores. Environment
// variables additionally are prefixed by the given string followed by
// and underscore. For example, if prefix=PREFIX: some-flag => PREFIX_SOME_FLAG
func SetFlagsFromEnv(fs *pflag.FlagSet, prefix string) (err error) {
	alreadySet := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		alreadySet[f.Name] = true
	})
	fs.VisitAll(func(f *pflag.Flag) {
		if !alreadySet[f.Name] {
			key := prefix + "_" + strings.ToUpper(strings.Replace(f.Name, "-", "_", -1))
			val := os.Getenv(key)
			if val != "" {
				if serr := fs.Set(f.Name, val); serr != nil {
					err = fmt.Errorf("invalid value %q for %s: %v", val, key, serr)
				}
			}
		}
	})
	return err
}

// SetFlagsFromConfigFile sets the flags of fs that are not already set
// from a YAML document mapping flag names to values. Lists and maps are
// accepted for slice and key=value flags.
func SetFlagsFromConfigFile(fs *pflag.FlagSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	values := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("unable to parse %s: %v", path, err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q in %s", name, path)
		}
		if f.Changed || values[name] == nil {
			continue
		}
		val, err := flagValue(values[name])
		if err != nil {
			return fmt.Errorf("invalid value for %s in %s: %v", name, path, err)
		}
		if err := fs.Set(name, val); err != nil {
			return fmt.Errorf("invalid value %q for %s in %s: %v", val, name, path, err)
		}
	}
	return nil
}

func flagValue(v interface{}) (string, error) {
	switch v := v.(type) {
	case []interface{}:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(item)
		}
		return strings.Join(items, ","), nil
	case map[string]interface{}:
		pairs := make([]string, 0, len(v))
		for k, item := range v {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, item))
		}
		sort.Strings(pairs)
		return strings.Join(pairs, ","), nil
	case map[interface{}]interface{}:
		return "", fmt.Errorf("map keys must be strings")
	default:
		return fmt.Sprint(v), nil
	}
}

// columnMapping builds a ColumnMapping from record field names to column
// names, rejecting unknown fields.
func columnMapping(names map[string]string) (billing.ColumnMapping, error) {
	var mapping billing.ColumnMapping
	if len(names) == 0 {
		return mapping, nil
	}
	data, err := yaml.Marshal(names)
	if err != nil {
		return mapping, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mapping); err != nil {
		return mapping, fmt.Errorf("invalid --column-names: %v", err)
	}
	return mapping, nil
}
