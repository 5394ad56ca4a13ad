// Package query reads the entry view's inputs from the page URL.
package query

import (
	"net/url"
	"strings"
)

// Query parameter names. Alias lists are in precedence order.
const (
	ParamType     = "type"
	ParamEmail    = "email"
	ParamFullName = "fullname"
)

var (
	taskIDAliases     = []string{"taskId", "task_id", "taskid"}
	callerTypeAliases = []string{"type_app", "typeApp"}
)

// Params is the normalized view of the query string. Absent values are "".
type Params struct {
	Type       string
	Email      string
	FullName   string
	TaskID     string
	CallerType string
}

// Read never fails and performs no validation; consumers decide what a value
// is good for.
func Read(values url.Values) Params {
	return Params{
		Type:       values.Get(ParamType),
		Email:      values.Get(ParamEmail),
		FullName:   values.Get(ParamFullName),
		TaskID:     firstOf(values, taskIDAliases),
		CallerType: firstOf(values, callerTypeAliases),
	}
}

func firstOf(values url.Values, names []string) string {
	for _, name := range names {
		if v := values.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// Rewrite returns path with a query string carrying only the selected
// duration type. Every other parameter is dropped from the address bar; the
// mount keeps what it already observed.
func Rewrite(path, durationType string) string {
	path = strings.TrimRight(path, "?")
	return path + "?" + url.Values{ParamType: {durationType}}.Encode()
}
