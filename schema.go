// Copyright (c) 2019 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package mobiletriage

import (
	"context"
	_ "embed" // report schema
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
)

//go:embed report.schema.json
var reportSchemaJSON []byte

var (
	reportSchema     *jsonschema.Schema
	reportSchemaErr  error
	reportSchemaOnce sync.Once
)

func setupSchemaValidation() {
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(reportSchemaJSON, schema); err != nil {
		reportSchemaErr = errors.Wrap(err, "could not parse report schema")
		return
	}
	reportSchema = schema
}

// ValidateReport checks report JSON against the report schema. Schema
// violations are returned as flaws, err is only set if the validation
// itself failed.
func ValidateReport(b []byte) (flaws []string, err error) {
	reportSchemaOnce.Do(setupSchemaValidation)
	if reportSchemaErr != nil {
		return nil, reportSchemaErr
	}

	if !json.Valid(b) {
		return []string{"report is not valid json"}, nil
	}

	errs, err := reportSchema.ValidateBytes(context.Background(), b)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate report: %s", verr))
	}
	return flaws, nil
}
