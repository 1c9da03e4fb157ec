// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package perftrackerreceiver runs the performance tracker monitors inside
// the collector and emits the tracker report as metrics.
//
// The trackers come from the tracker.Source handed to NewFactory through
// WithSource, usually the registry the embedding host records into. A factory
// built without WithSource, as a builder-made collector does, owns a registry
// nothing else writes to: its receivers then only report the timings of their
// own monitoring passes (Tracker.PerformNotifications and friends).
package perftrackerreceiver // import "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"
