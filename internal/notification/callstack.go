// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package notification // import "github.com/newrelic/nrdot-perftracking-components/internal/notification"

import (
	"regexp"
)

var frameLocation = regexp.MustCompile(`\[(\S+?):(\d+)\]`)

// FormatCallstack turns every "[file:line]" location of cs into a link of the
// form "[file:line](file#Lline)".
func FormatCallstack(cs string) string {
	return frameLocation.ReplaceAllString(cs, "[$1:$2]($1#L$2)")
}
