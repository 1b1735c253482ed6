package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"taxonid/internal/consensus"
	"taxonid/internal/services"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
)

// taxonSelector holds the --taxon-id / --name pair shared by commands that
// take a taxon.
type taxonSelector struct {
	id   string
	name string
}

func (s taxonSelector) empty() bool {
	return strings.TrimSpace(s.id) == "" && strings.TrimSpace(s.name) == ""
}

// resolve loads the selected taxon from the catalog by id, or by exact name
// through lookup.
func (s taxonSelector) resolve(ctx context.Context, st *store.Store, lookup taxon.Searcher) (taxon.Record, error) {
	if id := strings.TrimSpace(s.id); id != "" {
		rec, err := st.GetTaxon(ctx, id)
		if err != nil {
			return taxon.Record{}, err
		}
		if rec == nil {
			return taxon.Record{}, services.Wrap(services.ErrNotFound, "taxa", "get", fmt.Sprintf("taxon %q", id), nil)
		}
		return *rec, nil
	}
	name := strings.TrimSpace(s.name)
	if name == "" {
		return taxon.Record{}, services.Wrap(services.ErrValidation, "taxa", "select", "--taxon-id or --name is required", nil)
	}
	matches, err := lookup.LookupByName(ctx, name)
	if err != nil {
		return taxon.Record{}, err
	}
	if len(matches) == 0 {
		return taxon.Record{}, services.Wrap(services.ErrNotFound, "taxa", "lookup", fmt.Sprintf("no taxon named %q", name), nil)
	}
	return matches[0], nil
}

func confidenceText(result consensus.Result) string {
	if result.ConfidencePercentage == nil {
		return "-"
	}
	value := strconv.Itoa(*result.ConfidencePercentage) + "%"
	if result.ConfidenceTaxonName != "" {
		value += " " + result.ConfidenceTaxonName
	}
	return value
}
