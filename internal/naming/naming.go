// Package naming builds and validates canonical contract filenames.
//
// A canonical name encodes supplier, contract type, date range, and contract
// ID as SUPPLIER_TYPE_STARTYEAR_ENDYEAR_CONTRACTID. Open-ended contracts use
// the sentinel end year 2999. Names are value objects: once built they are
// never mutated, and the same metadata always produces the same name.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"docket/internal/services"
	"docket/internal/textutil"
)

// SentinelEndYear marks a contract with no determinable expiration.
const SentinelEndYear = 2999

// maxSupplierLen caps normalized supplier tokens so directory names stay
// manageable on every filesystem we care about.
const maxSupplierLen = 50

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Metadata is the extraction collaborator's output, validated here at the
// boundary before it enters the pipeline.
type Metadata struct {
	ContractID     string   `json:"contract_id"`
	ContractName   string   `json:"contract_name"`
	ContractType   string   `json:"contract_type"`
	Supplier       string   `json:"supplier"`
	Parties        []string `json:"parties"`
	EffectiveDate  string   `json:"effective_date"`
	ExpirationDate string   `json:"expiration_date"`
	Confidence     float64  `json:"confidence"`
}

// CanonicalName is the structured form of a canonical contract filename.
type CanonicalName struct {
	Supplier   string
	Type       string
	StartYear  int
	EndYear    int
	ContractID string
}

// MissingFieldError reports metadata lacking a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return services.ErrValidation }

// InvalidYearError reports an end year that is neither a plausible 4-digit
// year nor the open-ended sentinel.
type InvalidYearError struct {
	Value string
}

func (e *InvalidYearError) Error() string {
	return fmt.Sprintf("invalid contract year %q", e.Value)
}

func (e *InvalidYearError) Unwrap() error { return services.ErrValidation }

// ExcludedSupplierError reports metadata naming a known non-supplier party
// (typically the buyer side of every contract) as the supplier.
type ExcludedSupplierError struct {
	Supplier string
}

func (e *ExcludedSupplierError) Error() string {
	return fmt.Sprintf("supplier %q is on the exclusion list", e.Supplier)
}

func (e *ExcludedSupplierError) Unwrap() error { return services.ErrValidation }

// Builder validates metadata against the configured exclusion list and
// produces canonical names.
type Builder struct {
	excluded map[string]struct{}
}

// NewBuilder returns a Builder that rejects the given suppliers. Matching is
// case-insensitive over the normalized supplier token.
func NewBuilder(excludedSuppliers []string) *Builder {
	excluded := make(map[string]struct{}, len(excludedSuppliers))
	for _, name := range excludedSuppliers {
		key := strings.ToLower(NormalizeSupplier(name))
		if key != "" && key != "unknown" {
			excluded[key] = struct{}{}
		}
	}
	return &Builder{excluded: excluded}
}

// Build validates metadata and constructs a canonical name. Same metadata in,
// same name out.
func (b *Builder) Build(meta Metadata) (CanonicalName, error) {
	supplier := NormalizeSupplier(meta.Supplier)
	if strings.TrimSpace(meta.Supplier) == "" || supplier == "unknown" {
		return CanonicalName{}, &MissingFieldError{Field: "supplier"}
	}
	if _, ok := b.excluded[strings.ToLower(supplier)]; ok {
		return CanonicalName{}, &ExcludedSupplierError{Supplier: meta.Supplier}
	}
	contractType := textutil.SanitizeToken(meta.ContractType)
	if strings.TrimSpace(meta.ContractType) == "" || contractType == "unknown" {
		return CanonicalName{}, &MissingFieldError{Field: "contract_type"}
	}
	contractID := textutil.SanitizeToken(meta.ContractID)
	if strings.TrimSpace(meta.ContractID) == "" || contractID == "unknown" {
		return CanonicalName{}, &MissingFieldError{Field: "contract_id"}
	}
	startYear, ok := ExtractYear(meta.EffectiveDate)
	if !ok {
		return CanonicalName{}, &MissingFieldError{Field: "effective_date"}
	}
	endYear, err := resolveEndYear(meta.ExpirationDate, startYear)
	if err != nil {
		return CanonicalName{}, err
	}
	return CanonicalName{
		Supplier:   supplier,
		Type:       contractType,
		StartYear:  startYear,
		EndYear:    endYear,
		ContractID: contractID,
	}, nil
}

// resolveEndYear applies the open-ended sentinel when the expiration date is
// absent or carries no year, and rejects years that predate the start.
func resolveEndYear(expiration string, startYear int) (int, error) {
	expiration = strings.TrimSpace(expiration)
	if expiration == "" || strings.EqualFold(expiration, "null") || strings.EqualFold(expiration, "none") {
		return SentinelEndYear, nil
	}
	year, ok := ExtractYear(expiration)
	if !ok {
		if sentinel, err := strconv.Atoi(expiration); err == nil && sentinel == SentinelEndYear {
			return SentinelEndYear, nil
		}
		return 0, &InvalidYearError{Value: expiration}
	}
	if year < startYear {
		return 0, &InvalidYearError{Value: expiration}
	}
	return year, nil
}

// ExtractYear pulls the first plausible 4-digit year out of a free-form date
// string. Extraction output is rarely a clean ISO date, so this accepts
// anything containing a 19xx/20xx year.
func ExtractYear(date string) (int, bool) {
	match := yearPattern.FindString(date)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}

// NormalizeSupplier reduces a supplier name to a directory-safe token capped
// at 50 characters.
func NormalizeSupplier(supplier string) string {
	token := textutil.SanitizeToken(supplier)
	runes := []rune(token)
	if len(runes) > maxSupplierLen {
		token = strings.Trim(string(runes[:maxSupplierLen]), "_-")
	}
	return token
}

// Filename renders the canonical name with the given extension. The
// extension must include its leading dot.
func (n CanonicalName) Filename(ext string) string {
	return fmt.Sprintf("%s_%s_%d_%d_%s%s", n.Supplier, n.Type, n.StartYear, n.EndYear, n.ContractID, ext)
}

// Base renders the canonical name without an extension.
func (n CanonicalName) Base() string {
	return fmt.Sprintf("%s_%s_%d_%d_%s", n.Supplier, n.Type, n.StartYear, n.EndYear, n.ContractID)
}
