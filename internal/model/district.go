package model

// District is one entry of the Bangladeshi administrative district
// directory. The directory is reference data: seeded by migration and
// read-only at runtime.
type District struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Upazila is a sub-district belonging to exactly one district.
type Upazila struct {
	ID         uint64 `json:"id"`
	DistrictID uint64 `json:"districtId"`
	Name       string `json:"name"`
}
