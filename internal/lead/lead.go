package lead

import "strings"

// Lead is one contact record admitted into a campaign job.
//
// Identity fields are copied into the job's result records and into the
// correlation index snapshot at dispatch time; the lead's position within a
// job is its identity for the job's lifetime.
type Lead struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
}

// Mapping names, per lead field, the row key it should be read from.
// Rows arrive as loosely-keyed maps (CSV headers, spreadsheet exports).
type Mapping struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// FromRows builds leads from raw rows using the column mapping.
// Rows without a usable phone number are dropped. A limit of 0 means no cap.
func FromRows(rows []map[string]string, m Mapping, limit int) []Lead {
	out := make([]Lead, 0, len(rows))
	for _, row := range rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		phone, ok := NormalizePhone(row[m.Phone])
		if !ok {
			continue
		}
		out = append(out, Lead{
			FirstName: strings.TrimSpace(row[m.FirstName]),
			LastName:  strings.TrimSpace(row[m.LastName]),
			Phone:     phone,
			Address:   strings.TrimSpace(row[m.Address]),
			City:      strings.TrimSpace(row[m.City]),
			State:     strings.TrimSpace(row[m.State]),
			Zip:       strings.TrimSpace(row[m.Zip]),
		})
	}
	return out
}

// FullName joins the name parts, tolerating either being empty.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// FullAddress renders the address fields for template interpolation.
func (l Lead) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Address, l.City, l.State, l.Zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
