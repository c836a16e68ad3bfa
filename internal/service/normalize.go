package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"barangay/internal/models"
)

// fieldAliases maps legacy change-set keys to their canonical column names.
// Old clients still submit "phone"; the stored record only knows
// "contact_number".
var fieldAliases = map[string]string{
	"phone":        "contact_number",
	"phone_number": "contact_number",
}

// updatableFields is the set of resident fields a request may change.
var updatableFields = map[string]struct{}{
	"first_name":     {},
	"middle_name":    {},
	"last_name":      {},
	"suffix":         {},
	"birth_date":     {},
	"gender":         {},
	"civil_status":   {},
	"occupation":     {},
	"contact_number": {},
	"email":          {},
	"address":        {},
}

var addressFields = map[string]struct{}{
	"house_number": {},
	"street":       {},
	"purok":        {},
	"barangay":     {},
	"city":         {},
	"province":     {},
	"zip_code":     {},
}

// NormalizeChanges canonicalizes a submitted change set: aliased keys are
// renamed, string values trimmed, and an all-blank structured address is
// dropped so it can never wipe a stored one. When an alias and its canonical
// key are both present the canonical key wins.
func NormalizeChanges(changes models.JSONMap) models.JSONMap {
	out := models.JSONMap{}
	// Deterministic order so alias conflicts resolve the same way each time.
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := changes[k]
		canonical := k
		if alias, ok := fieldAliases[k]; ok {
			canonical = alias
			if _, exists := changes[canonical]; exists {
				continue
			}
		}
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		if canonical == "address" {
			if addr, ok := v.(map[string]interface{}); ok && addressIsBlank(addr) {
				continue
			}
		}
		out[canonical] = v
	}
	return out
}

func addressIsBlank(addr map[string]interface{}) bool {
	for _, v := range addr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// ValidateChanges rejects an empty or unknown-field change set. It expects
// an already-normalized map.
func ValidateChanges(changes models.JSONMap) error {
	if len(changes) == 0 {
		return models.NewValidationError("Change set is empty")
	}
	for k, v := range changes {
		if _, ok := updatableFields[k]; !ok {
			return models.NewValidationError(fmt.Sprintf("Field %q cannot be updated", k))
		}
		if k == "address" {
			addr, ok := v.(map[string]interface{})
			if !ok {
				return models.NewValidationError("Address must be a structured object")
			}
			for sub := range addr {
				if _, ok := addressFields[sub]; !ok {
					return models.NewValidationError(fmt.Sprintf("Unknown address field %q", sub))
				}
			}
		}
		if k == "birth_date" {
			if s, ok := v.(string); ok && s != "" {
				if _, err := parseBirthDate(s); err != nil {
					return models.NewValidationError("Birth date must be YYYY-MM-DD")
				}
			}
		}
	}
	return nil
}

const (
	maxUploadedFiles      = 10
	maxUploadedFileLength = 512
)

// NormalizeUploadedFiles trims document references and drops blanks.
func NormalizeUploadedFiles(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateUploadedFiles bounds the count and shape of document references.
// File bytes live with an external collaborator; only opaque references are
// stored here, so shape means printable and length-bounded.
func ValidateUploadedFiles(refs []string) error {
	if len(refs) > maxUploadedFiles {
		return models.NewValidationError(fmt.Sprintf("At most %d uploaded documents per request", maxUploadedFiles))
	}
	for _, ref := range refs {
		if len(ref) > maxUploadedFileLength {
			return models.NewValidationError("Uploaded document reference is too long")
		}
		for _, r := range ref {
			if r < 0x20 || r == 0x7f {
				return models.NewValidationError("Uploaded document reference contains control characters")
			}
		}
	}
	return nil
}

func parseBirthDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ApplyChanges merges a normalized change set onto resident in place and
// returns it. Keys outside the updatable set are skipped; validation already
// happened at submit time.
func ApplyChanges(resident *models.Resident, changes models.JSONMap) (*models.Resident, error) {
	for k, v := range changes {
		switch k {
		case "first_name":
			resident.FirstName = asString(v)
		case "middle_name":
			resident.MiddleName = asString(v)
		case "last_name":
			resident.LastName = asString(v)
		case "suffix":
			resident.Suffix = asString(v)
		case "gender":
			resident.Gender = asString(v)
		case "civil_status":
			resident.CivilStatus = asString(v)
		case "occupation":
			resident.Occupation = asString(v)
		case "contact_number":
			resident.ContactNumber = asString(v)
		case "email":
			resident.Email = asString(v)
		case "birth_date":
			s := asString(v)
			if s == "" {
				resident.BirthDate = nil
				continue
			}
			t, err := parseBirthDate(s)
			if err != nil {
				return nil, models.NewValidationError("Birth date must be YYYY-MM-DD")
			}
			resident.BirthDate = &t
		case "address":
			addr, ok := v.(map[string]interface{})
			if !ok || addressIsBlank(addr) {
				continue
			}
			applyAddress(&resident.Address, addr)
		}
	}
	return resident, nil
}

func applyAddress(dst *models.Address, addr map[string]interface{}) {
	for k, v := range addr {
		s := asString(v)
		switch k {
		case "house_number":
			dst.HouseNumber = s
		case "street":
			dst.Street = s
		case "purok":
			dst.Purok = s
		case "barangay":
			dst.Barangay = s
		case "city":
			dst.City = s
		case "province":
			dst.Province = s
		case "zip_code":
			dst.ZipCode = s
		}
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// snapshotFields captures the resident's current values for the keys being
// changed. The snapshot is stored on the request so reviewers see the
// before/after pair the submitter saw.
func snapshotFields(resident *models.Resident, changes models.JSONMap) models.JSONMap {
	snap := models.JSONMap{}
	for k := range changes {
		switch k {
		case "first_name":
			snap[k] = resident.FirstName
		case "middle_name":
			snap[k] = resident.MiddleName
		case "last_name":
			snap[k] = resident.LastName
		case "suffix":
			snap[k] = resident.Suffix
		case "gender":
			snap[k] = resident.Gender
		case "civil_status":
			snap[k] = resident.CivilStatus
		case "occupation":
			snap[k] = resident.Occupation
		case "contact_number":
			snap[k] = resident.ContactNumber
		case "email":
			snap[k] = resident.Email
		case "birth_date":
			if resident.BirthDate != nil {
				snap[k] = resident.BirthDate.Format("2006-01-02")
			} else {
				snap[k] = ""
			}
		case "address":
			snap[k] = map[string]interface{}{
				"house_number": resident.Address.HouseNumber,
				"street":       resident.Address.Street,
				"purok":        resident.Address.Purok,
				"barangay":     resident.Address.Barangay,
				"city":         resident.Address.City,
				"province":     resident.Address.Province,
				"zip_code":     resident.Address.ZipCode,
			}
		}
	}
	return snap
}
