// Package health aggregates dependency checks into a single status and JSON report.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type Check struct {
	Name  string
	Check func(context.Context, bool) (int, string, error)
}

// CheckAll runs every check. The overall status is 503 if any check errors or is not 200.
func CheckAll(ctx context.Context, checkLiveness bool, checks []Check) (int, string, error) {
	var (
		overallStatus = http.StatusOK
		messages      = make([]string, 0, len(checks))
	)

	for _, check := range checks {
		status, message, err := check.Check(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			overallStatus = http.StatusServiceUnavailable
		}

		errStr := "<nil>"
		if err != nil {
			errStr = err.Error()
		}

		var msg string

		// nested reports are embedded as-is
		if len(message) > 0 && message[0] == '{' && message[len(message)-1] == '}' {
			msg = fmt.Sprintf(`{"resource": %s, "status": "%d", "error": %s, "dependencies": [%s]}`, quote(check.Name), status, quote(errStr), message)
		} else {
			msg = fmt.Sprintf(`{"resource": %s, "status": "%d", "error": %s, "message": %s}`, quote(check.Name), status, quote(errStr), quote(message))
		}

		messages = append(messages, msg)
	}

	return overallStatus, fmt.Sprintf(`{"status":"%d", "dependencies":[%s]}`, overallStatus, strings.Join(messages, ",\n")), nil
}

func quote(s string) string {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
	if err != nil {
		return `""`
	}

	return string(b)
}
