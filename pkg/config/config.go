// Package config loads struct-tagged configuration from YAML files and the environment.
//
// Supported tags:
//
//	env:"NAME"       environment variable that overrides the field
//	yaml:"name"      key used when a YAML file is loaded first
//	default:"value"  applied when the field is still zero after loading
//	required:"true"  reported as missing when zero and no default exists
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// It is called after loading configuration from files and environment variables.
type Validator interface {
	Validate() error
}

// setValue parses raw into field according to the field's kind.
func setValue(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %v", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %v", raw, err)
		}
		field.SetInt(v)
	case reflect.Float64, reflect.Float32:
		bits := 64
		if field.Kind() == reflect.Float32 {
			bits = 32
		}
		v, err := strconv.ParseFloat(raw, bits)
		if err != nil {
			return fmt.Errorf("failed to convert %s to float: %v", raw, err)
		}
		field.SetFloat(v)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %v", raw, err)
		}
		field.SetBool(v)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			slice.Index(i).SetString(strings.TrimSpace(v))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// fieldKey identifies a field by struct type and name so nested structs don't collide.
func fieldKey(t reflect.Type, f reflect.StructField) string {
	return t.Name() + "." + f.Name
}

func applyEnv(val reflect.Value, t reflect.Type, set map[string]bool) error {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := t.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnv(field, sf.Type, set); err != nil {
				return err
			}
			continue
		}

		tag := sf.Tag.Get("env")
		if tag == "" {
			continue
		}
		raw := os.Getenv(tag)
		if raw == "" {
			continue
		}
		set[fieldKey(t, sf)] = true
		if err := setValue(field, raw); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	return nil
}

func applyDefaults(val reflect.Value, t reflect.Type, set map[string]bool) error {
	var result error
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := t.Field(i)

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyDefaults(field, sf.Type, set); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		defaultTag, hasDefault := sf.Tag.Lookup("default")
		required := strings.EqualFold(sf.Tag.Get("required"), "true") || sf.Tag.Get("required") == "1"

		if !field.IsZero() {
			continue
		}
		if required && !hasDefault {
			result = multierror.Append(result, fmt.Errorf("required field env:%s / yaml:%s is missing", sf.Tag.Get("env"), sf.Tag.Get("yaml")))
			continue
		}
		if hasDefault && defaultTag != "" && !set[fieldKey(t, sf)] {
			if err := setValue(field, defaultTag); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result
}

func validate[T any](dest *T) error {
	if v, ok := any(dest).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	}
	if v, ok := any(*dest).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// GetConfigFromEnvVars loads configuration from environment variables only.
//
//	var cfg MyConfig
//	err := GetConfigFromEnvVars(&cfg)
func GetConfigFromEnvVars[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	set := make(map[string]bool)

	if err := applyEnv(val, val.Type(), set); err != nil {
		return err
	}
	if err := applyDefaults(val, val.Type(), set); err != nil {
		var zero T
		*dest = zero
		return err
	}
	return validate(dest)
}

// GetConfig loads configuration from a YAML file first, then overlays environment variables.
// An empty path loads from the environment only. With allowFileErrors, an unreadable or
// unparsable file falls back to the environment.
func GetConfig[T any](dest *T, path string, allowFileErrors bool) error {
	if path == "" {
		return GetConfigFromEnvVars(dest)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return GetConfigFromEnvVars(dest)
}
