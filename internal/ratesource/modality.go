// Package ratesource looks up monthly market-average interest rates published
// by the Brazilian Central Bank time series service (SGS).
package ratesource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnavailable covers every reason a reference rate could not be obtained.
	ErrUnavailable = errors.New("reference rate unavailable")

	// ErrUnknownModality is returned for modality identifiers outside the catalog.
	ErrUnknownModality = fmt.Errorf("%w: unknown credit modality", ErrUnavailable)
)

// Modality is a credit product with a published market-average rate series.
type Modality struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	SeriesCode  string `json:"seriesCode" yaml:"seriesCode"`
}

// Modality identifiers.
const (
	VehicleFinancing   = "vehicle-financing"
	PersonalCredit     = "personal-credit"
	PayrollCredit      = "payroll-credit"
	WorkingCapital     = "working-capital"
	MortgageMarketRate = "mortgage-market-rate"
)

var defaultModalities = []Modality{
	{ID: VehicleFinancing, Description: "Financiamento de Veículo (PF)", SeriesCode: "25488"},
	{ID: PersonalCredit, Description: "Crédito Pessoal Não-consignado (PF)", SeriesCode: "25484"},
	{ID: PayrollCredit, Description: "Crédito Consignado (PF)", SeriesCode: "25492"},
	{ID: WorkingCapital, Description: "Capital de Giro (PJ)", SeriesCode: "20745"},
	{ID: MortgageMarketRate, Description: "Crédito Imobiliário com Taxas de Mercado (PF)", SeriesCode: "21763"},
}

// Catalog maps modality identifiers onto their SGS series.
type Catalog struct {
	modalities map[string]Modality
}

// NewCatalog returns the built-in catalog with series codes replaced by any
// entry of overrides (modality id -> series code).
func NewCatalog(overrides map[string]string) (*Catalog, error) {
	c := &Catalog{modalities: make(map[string]Modality, len(defaultModalities))}
	for _, m := range defaultModalities {
		c.modalities[m.ID] = m
	}
	for id, code := range overrides {
		key := normalizeID(id)
		m, ok := c.modalities[key]
		if !ok {
			return nil, fmt.Errorf("series override for %w %q", ErrUnknownModality, id)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("empty series code for modality %q", id)
		}
		m.SeriesCode = code
		c.modalities[key] = m
	}
	return c, nil
}

// DefaultCatalog returns the catalog without overrides.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(nil)
	return c
}

// Lookup resolves a modality identifier. Matching ignores case and surrounding space.
func (c *Catalog) Lookup(id string) (Modality, error) {
	m, ok := c.modalities[normalizeID(id)]
	if !ok {
		return Modality{}, fmt.Errorf("%w %q", ErrUnknownModality, id)
	}
	return m, nil
}

// Modalities lists the catalog ordered by identifier.
func (c *Catalog) Modalities() []Modality {
	list := make([]Modality, 0, len(c.modalities))
	for _, m := range c.modalities {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
