// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package metadata // import "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver/internal/metadata"

import (
	"go.opentelemetry.io/collector/component"
)

var (
	Type      = component.MustNewType("perftracker")
	ScopeName = "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"
)

const (
	MetricsStability = component.StabilityLevelDevelopment
)
