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
	"github.com/fatih/structs"
	"github.com/stoewer/go-strcase"

	"github.com/forensicanalysis/mobiletriage/relational"
)

// Row is one entry of the legacy list view of a report section.
type Row map[string]interface{}

// Rows renders the report as one list per section with records as
// snake_case maps. A failed section is a single row holding its error
// message.
func (r *Report) Rows() map[string][]Row {
	images := make([]Row, 0, len(r.Images))
	for _, image := range r.Images {
		images = append(images, Row{"path": image.Path, "creation_date": image.CreationDate.String()})
	}
	audio := make([]Row, 0, len(r.Audio))
	for _, a := range r.Audio {
		audio = append(audio, Row{"path": a.Path})
	}
	return map[string][]Row{
		"sms":    resultRows(r.Messages),
		"calls":  resultRows(r.Calls),
		"images": images,
		"audio":  audio,
	}
}

func resultRows[T any](result relational.Result[T]) []Row {
	if !result.OK() {
		return []Row{{"error": result.Failure.Message}}
	}
	rows := make([]Row, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, Row(lower(structs.Map(record)).(map[string]interface{})))
	}
	return rows
}

func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			f[i] = lower(f[i])
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			lf[strcase.SnakeCase(k)] = lower(v)
		}
		return lf
	default:
		return f
	}
}
