// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package spike // import "github.com/newrelic/nrdot-perftracking-components/internal/spike"

import (
	"regexp"
	"strings"
)

// Kind distinguishes highlighted surfaces.
type Kind int

const (
	// KindWindow entities get a fading border and need a parent to paint on.
	KindWindow Kind = iota
	// KindElement entities are sub-parts of a window. Their faint background
	// overlay does not fade.
	KindElement
)

func (k Kind) String() string {
	if k == KindElement {
		return "element"
	}
	return "window"
}

// Entity is something whose tracker drives a highlight.
type Entity struct {
	ID      string
	Tracker string
	// Parent identifies the surface the overlay gets attached to. A window
	// with no parent is not visible and is not painted.
	Parent string
	Kind   Kind
	// Owner is the ID of the window an element belongs to.
	Owner string
}

const (
	paintSuffix    = ".Paint"
	elementPrefix  = "Editor."
	elementGUIMark = ".OnInspectorGUI"
)

// WindowPaintMarker returns the tracker timing the paint of a window type.
func WindowPaintMarker(windowType string) string {
	return windowType + paintSuffix
}

// ElementMarker returns the tracker timing the GUI of a named element.
func ElementMarker(name string) string {
	return elementPrefix + name + elementGUIMark
}

// EntitiesFromTrackers builds window entities for every name matching
// pattern, all attached to parent. A nil pattern matches paint markers.
func EntitiesFromTrackers(names []string, pattern *regexp.Regexp, parent string) []Entity {
	var entities []Entity
	for _, name := range names {
		if pattern == nil {
			if !strings.HasSuffix(name, paintSuffix) {
				continue
			}
		} else if !pattern.MatchString(name) {
			continue
		}
		entities = append(entities, Entity{ID: name, Tracker: name, Parent: parent, Kind: KindWindow})
	}
	return entities
}
