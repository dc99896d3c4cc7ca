// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

import "fmt"

// AssociationType names the dependent dataset an association edge points at.
type AssociationType string

const (
	AssociationAreaData   AssociationType = "AREA_DATA"
	AssociationAreaLookup AssociationType = "AREA_LOOKUP"
	AssociationHealthcare AssociationType = "HEALTHCARE_DATA"
	AssociationSoaData    AssociationType = "SOA_DATA"
	AssociationAlertLevel AssociationType = "ALERT_LEVEL"
)

// ParseAssociationType validates a string as an AssociationType.
func ParseAssociationType(s string) (AssociationType, error) {
	switch AssociationType(s) {
	case AssociationAreaData, AssociationAreaLookup, AssociationHealthcare,
		AssociationSoaData, AssociationAlertLevel:
		return AssociationType(s), nil
	default:
		return "", fmt.Errorf("unknown association type %q", s)
	}
}

// AreaAssociation records that AreaCode's display depends on a dataset
// cached under AssociatedAreaCode (e.g. a saved LTLA depends on its
// nation's healthcare series). Edges accumulate; the cleaner recomputes
// reachability from scratch rather than reference counting.
type AreaAssociation struct {
	AreaCode           string          `json:"areaCode"`
	AssociatedAreaCode string          `json:"associatedAreaCode"`
	AssociationType    AssociationType `json:"associationType"`
}
