// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"reflect"
)

// JSONOutput adds a --json flag to any params struct that embeds it.
// Commands call [JSONOutput.EmitJSON] first in their output stage and
// fall through to text formatting when the flag is off:
//
//	type infoParams struct {
//	    cli.JSONOutput
//	    Profile string `flag:"profile" desc:"profile name"`
//	}
//
//	if done, err := params.EmitJSON(elements); done {
//	    return err
//	}
//	// ... text formatting ...
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result to stdout as indented JSON when --json was
// given. done reports whether output was handled here; when it is
// false the caller formats text instead. A nil slice result is
// emitted as [], never null, so consumers can always iterate.
func (j *JSONOutput) EmitJSON(result any) (done bool, err error) {
	if !j.OutputJSON {
		return false, nil
	}
	value := reflect.ValueOf(result)
	if value.Kind() == reflect.Slice && value.IsNil() {
		result = reflect.MakeSlice(value.Type(), 0, 0).Interface()
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return true, encoder.Encode(result)
}
