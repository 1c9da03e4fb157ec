// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package tracker holds the performance tracker data model: the Source of raw
// counters, snapshot building with per-tracker deltas, sorting, list filtering
// and the numeric formatting shared by every report.
package tracker // import "github.com/newrelic/nrdot-perftracking-components/internal/tracker"
