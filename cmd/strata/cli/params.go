// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by param types that register their own
// flags. When a struct field's type implements FlagBinder, [BindFlags]
// calls AddFlags on it instead of reflecting over its tags, so shared
// flag groups like [ConfigFlag] and [JSONOutput] can be embedded in
// any command's params struct.
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams builds the flag set for a command from its params
// struct. params must be a pointer to a struct; tagged fields become
// flags and are written through when the command line is parsed.
// Binding failures are programming errors and panic.
//
// The usual wiring:
//
//	var params installParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("install", &params)
//	    },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        // params carries the parsed flag values here.
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag on flagSet for every tagged field of the
// struct params points to.
//
// Fields opt in with a `flag:"name"` tag (or `flag:"name,n"` to add a
// one-letter shorthand). `desc:"..."` sets the help text and
// `default:"..."` the default value, parsed per the field's type.
// Untagged fields are ignored. Supported field types: string, bool,
// int, int64, float64, [time.Duration], and []string (comma-separated
// default).
//
// Struct-typed fields implementing [FlagBinder] contribute their
// flags through AddFlags; other embedded structs are walked
// recursively so param structs can be composed by embedding.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return walkParamFields(value.Elem(), flagSet)
}

func walkParamFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Type.Kind() == reflect.Struct {
			// A FlagBinder field registers itself. Interface() needs
			// an exported, addressable field.
			if field.IsExported() && fieldValue.CanAddr() {
				if binder, ok := fieldValue.Addr().Interface().(FlagBinder); ok {
					binder.AddFlags(flagSet)
					continue
				}
			}
			if field.Anonymous {
				if err := walkParamFields(fieldValue, flagSet); err != nil {
					return fmt.Errorf("embedded %s: %w", field.Name, err)
				}
				continue
			}
		}

		tag, ok := field.Tag.Lookup("flag")
		if !ok || tag == "" {
			continue
		}
		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		name, shorthand, _ := strings.Cut(tag, ",")

		// Write the default into the field first; registration below
		// then reads it back, so pflag's defaults and the struct
		// always agree.
		if raw := field.Tag.Get("default"); raw != "" {
			if err := setFieldFromString(fieldValue, raw); err != nil {
				return fmt.Errorf("field %s: default for --%s: %w", field.Name, name, err)
			}
		}
		if err := registerFlag(flagSet, fieldValue, name, shorthand, field.Tag.Get("desc")); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// setFieldFromString parses raw per the field's type and stores it.
func setFieldFromString(fieldValue reflect.Value, raw string) error {
	switch fieldValue.Interface().(type) {
	case time.Duration:
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fieldValue.SetInt(int64(parsed))
		return nil
	case []string:
		fieldValue.Set(reflect.ValueOf(strings.Split(raw, ",")))
		return nil
	}

	switch fieldValue.Kind() {
	case reflect.String:
		fieldValue.SetString(raw)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fieldValue.SetBool(parsed)
	case reflect.Int, reflect.Int64:
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fieldValue.SetInt(parsed)
	case reflect.Float64:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fieldValue.SetFloat(parsed)
	default:
		return fmt.Errorf("unsupported type %s", fieldValue.Type())
	}
	return nil
}

// registerFlag binds one field to flagSet, using the field's current
// value as the flag default.
func registerFlag(flagSet *pflag.FlagSet, fieldValue reflect.Value, name, shorthand, usage string) error {
	switch target := fieldValue.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, *target, usage)
	case *bool:
		flagSet.BoolVarP(target, name, shorthand, *target, usage)
	case *int:
		flagSet.IntVarP(target, name, shorthand, *target, usage)
	case *int64:
		flagSet.Int64VarP(target, name, shorthand, *target, usage)
	case *float64:
		flagSet.Float64VarP(target, name, shorthand, *target, usage)
	case *time.Duration:
		flagSet.DurationVarP(target, name, shorthand, *target, usage)
	case *[]string:
		flagSet.StringSliceVarP(target, name, shorthand, *target, usage)
	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), name)
	}
	return nil
}
