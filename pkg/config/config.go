// Package config provides YAML configuration loading with environment variable override.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads a YAML configuration file into the given struct.
// It also applies environment variable overrides using struct tags and
// checks fields tagged `required:"true"`.
func Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	// Expand environment variables in the YAML
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return finish(out)
}

// LoadOrDefault tries to load config from path. If the file doesn't exist,
// out keeps its current values and only environment overrides are applied.
func LoadOrDefault(path string, out any) error {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path, out)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat config file %s: %w", path, err)
		}
	}
	return finish(out)
}

// Validate returns an error naming every field tagged `required:"true"`
// that holds its zero value.
func Validate(v any) error {
	var missing []string
	walk(reflect.ValueOf(v), func(field reflect.StructField, val reflect.Value) {
		if field.Tag.Get("required") == "true" && val.IsZero() {
			missing = append(missing, describe(field))
		}
	})
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func finish(out any) error {
	if err := applyEnvOverrides(out); err != nil {
		return err
	}
	return Validate(out)
}

// applyEnvOverrides sets struct fields from environment variables.
// It uses the `env` struct tag to determine the env var name.
func applyEnvOverrides(v any) error {
	var errs []error
	walk(reflect.ValueOf(v), func(field reflect.StructField, val reflect.Value) {
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return
		}
		envVal, ok := os.LookupEnv(envTag)
		if !ok || !val.CanSet() {
			return
		}
		if err := setValue(val, envVal); err != nil {
			errs = append(errs, fmt.Errorf("env %s: %w", envTag, err))
		}
	})
	return errors.Join(errs...)
}

func setValue(fieldVal reflect.Value, envVal string) error {
	if fieldVal.Type() == durationType {
		d, err := time.ParseDuration(envVal)
		if err != nil {
			return err
		}
		fieldVal.SetInt(int64(d))
		return nil
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(envVal)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(envVal, 10, 64)
		if err != nil {
			return err
		}
		fieldVal.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(envVal, 64)
		if err != nil {
			return err
		}
		fieldVal.SetFloat(f)
	case reflect.Bool:
		fieldVal.SetBool(strings.EqualFold(envVal, "true") || envVal == "1")
	}
	return nil
}

// walk calls fn for every non-struct leaf field, recursing into nested
// structs and non-nil struct pointers.
func walk(val reflect.Value, fn func(reflect.StructField, reflect.Value)) {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldVal := val.Field(i)

		if fieldVal.Kind() == reflect.Struct && fieldVal.Type() != durationType {
			walk(fieldVal, fn)
			continue
		}
		if fieldVal.Kind() == reflect.Ptr && fieldVal.Type().Elem().Kind() == reflect.Struct {
			walk(fieldVal, fn)
			continue
		}
		fn(field, fieldVal)
	}
}

func describe(field reflect.StructField) string {
	name := field.Name
	if tag := strings.Split(field.Tag.Get("yaml"), ",")[0]; tag != "" && tag != "-" {
		name = tag
	}
	if env := field.Tag.Get("env"); env != "" {
		return fmt.Sprintf("%s (env %s)", name, env)
	}
	return name
}
