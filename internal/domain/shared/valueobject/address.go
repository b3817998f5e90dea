package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Address is an immutable shipping address value object
type Address struct {
	name       string
	line1      string
	line2      string
	city       string
	region     string
	postalCode string
	country    string
}

// AddressDTO is the serializable form of Address
type AddressDTO struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// NewAddress validates and normalizes the DTO into an Address.
// Country must be an ISO 3166-1 alpha-2 region code.
func NewAddress(dto AddressDTO) (Address, error) {
	a := Address{
		name:       strings.TrimSpace(dto.Name),
		line1:      strings.TrimSpace(dto.Line1),
		line2:      strings.TrimSpace(dto.Line2),
		city:       strings.TrimSpace(dto.City),
		region:     strings.TrimSpace(dto.Region),
		postalCode: strings.ToUpper(strings.TrimSpace(dto.PostalCode)),
	}

	required := map[string]string{
		"name":        a.name,
		"line1":       a.line1,
		"city":        a.city,
		"postal code": a.postalCode,
	}
	for field, v := range required {
		if v == "" {
			return Address{}, fmt.Errorf("%s cannot be empty", field)
		}
		if len(v) > 200 {
			return Address{}, fmt.Errorf("%s cannot exceed 200 characters", field)
		}
	}
	if len(a.line2) > 200 || len(a.region) > 100 {
		return Address{}, fmt.Errorf("address field too long")
	}

	country, err := normalizeCountry(dto.Country)
	if err != nil {
		return Address{}, err
	}
	a.country = country
	return a, nil
}

func normalizeCountry(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", fmt.Errorf("country must be a 2-letter ISO code")
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return "", fmt.Errorf("unknown country code %q", code)
	}
	return region.String(), nil
}

func (a Address) Name() string       { return a.name }
func (a Address) Line1() string      { return a.line1 }
func (a Address) Line2() string      { return a.line2 }
func (a Address) City() string       { return a.city }
func (a Address) Region() string     { return a.region }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) Country() string    { return a.country }

// IsEmpty returns true if the address carries no data
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String renders a single-line address
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := []string{a.name, a.line1}
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	locality := a.city
	if a.region != "" {
		locality += ", " + a.region
	}
	parts = append(parts, locality+" "+a.postalCode, a.country)
	return strings.Join(parts, ", ")
}

// ToDTO converts to the serializable form
func (a Address) ToDTO() AddressDTO {
	return AddressDTO{
		Name:       a.name,
		Line1:      a.line1,
		Line2:      a.line2,
		City:       a.city,
		Region:     a.region,
		PostalCode: a.postalCode,
		Country:    a.country,
	}
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToDTO())
}

// UnmarshalJSON implements json.Unmarshaler and applies NewAddress validation
func (a *Address) UnmarshalJSON(data []byte) error {
	var dto AddressDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	addr, err := NewAddress(dto)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer. Stored as a JSON document.
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
