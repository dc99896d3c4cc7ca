// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

// AreaLookup maps a fine-grained geographic unit (LSOA) to its chain of
// containing areas. Each LSOA maps to exactly one chain. Levels that do
// not apply are nil: devolved nations have no English region, and NHS
// trust/region codes exist only in England.
type AreaLookup struct {
	LsoaCode string `json:"lsoaCode"`
	LsoaName string `json:"lsoaName"`

	MsoaCode string `json:"msoaCode"`
	MsoaName string `json:"msoaName"`

	LtlaCode string `json:"ltlaCode"`
	LtlaName string `json:"ltlaName"`

	UtlaCode string `json:"utlaCode"`
	UtlaName string `json:"utlaName"`

	RegionCode *string `json:"regionCode"`
	RegionName *string `json:"regionName"`

	NhsTrustCode *string `json:"nhsTrustCode"`
	NhsTrustName *string `json:"nhsTrustName"`

	NhsRegionCode *string `json:"nhsRegionCode"`
	NhsRegionName *string `json:"nhsRegionName"`

	NationCode string `json:"nationCode"`
	NationName string `json:"nationName"`
}

// ContainingCodes returns the non-empty containing area codes of the
// lookup chain, fine to coarse, excluding the LSOA itself.
func (l *AreaLookup) ContainingCodes() []string {
	codes := make([]string, 0, 6)
	for _, c := range []string{l.MsoaCode, l.LtlaCode, l.UtlaCode} {
		if c != "" {
			codes = append(codes, c)
		}
	}
	if l.RegionCode != nil && *l.RegionCode != "" {
		codes = append(codes, *l.RegionCode)
	}
	if l.NationCode != "" {
		codes = append(codes, l.NationCode)
	}
	return codes
}

// HealthcareCodes returns the NHS trust and NHS region codes, where present.
func (l *AreaLookup) HealthcareCodes() []string {
	codes := make([]string, 0, 2)
	if l.NhsTrustCode != nil && *l.NhsTrustCode != "" {
		codes = append(codes, *l.NhsTrustCode)
	}
	if l.NhsRegionCode != nil && *l.NhsRegionCode != "" {
		codes = append(codes, *l.NhsRegionCode)
	}
	return codes
}

// HealthcareLookup maps an NHS trust to its parent NHS region, used when a
// trust's own healthcare series is absent.
type HealthcareLookup struct {
	NhsTrustCode  string `json:"nhsTrustCode"`
	NhsTrustName  string `json:"nhsTrustName"`
	NhsRegionCode string `json:"nhsRegionCode"`
	NhsRegionName string `json:"nhsRegionName"`
}
