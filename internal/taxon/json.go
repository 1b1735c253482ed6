package taxon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"taxonid/internal/rank"
)

const commonNamePrefix = "cname_"

// MarshalJSON encodes the record in the flat search-backend shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 8)
	if r.ID != "" {
		out["id"] = r.ID
	}
	if r.ScientificName != "" {
		out["scientific_name"] = r.ScientificName
	}
	if r.CommonName != "" {
		out["common_name"] = r.CommonName
	}
	if r.Rank != rank.Unranked {
		out["rank"] = r.Rank.String()
	}
	if r.Status != "" {
		out["taxonomic_status"] = string(r.Status)
	}
	if r.AcceptedScientificName != "" {
		out["accepted_scientific_name"] = r.AcceptedScientificName
	}
	for _, at := range rank.All() {
		if name := r.Names[at]; name != "" {
			out[at.String()] = name
		}
		if cname := r.CommonNames[at]; cname != "" {
			out[commonNamePrefix+at.String()] = cname
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat search-backend shape. Null values, unknown
// keys and numeric ids are tolerated.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode taxon record: %w", err)
	}
	var rec Record
	for key, value := range raw {
		text, ok := stringValue(value)
		if !ok {
			continue
		}
		switch key {
		case "id":
			if text != "" {
				rec.ID = text
			}
		case "taxon_id":
			if rec.ID == "" {
				rec.ID = text
			}
		case "scientific_name":
			rec.ScientificName = text
		case "common_name":
			rec.CommonName = text
		case "rank":
			if parsed := rank.FromString(text); parsed != rank.Unranked {
				rec.Rank = parsed
			}
		case "taxon_rank":
			if rec.Rank == rank.Unranked {
				rec.Rank = rank.FromString(text)
			}
		case "taxonomic_status":
			rec.Status = ParseStatus(text)
		case "accepted_scientific_name":
			rec.AcceptedScientificName = text
		default:
			if strings.HasPrefix(key, commonNamePrefix) {
				if at, ok := rank.Parse(strings.TrimPrefix(key, commonNamePrefix)); ok {
					rec.CommonNames[at] = text
				}
				continue
			}
			if at, ok := rank.Parse(key); ok {
				rec.Names[at] = text
			}
		}
	}
	*r = rec
	return nil
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
