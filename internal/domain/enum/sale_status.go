package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus int

const (
	SaleStatusUnknown   SaleStatus = 0
	SaleStatusActive    SaleStatus = 1
	SaleStatusCancelled SaleStatus = 2
)

func (s SaleStatus) String() string {
	switch s {
	case SaleStatusActive:
		return "Active"
	case SaleStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseSaleStatus accepts the names produced by String
func ParseSaleStatus(str string) (SaleStatus, error) {
	switch str {
	case "Active":
		return SaleStatusActive, nil
	case "Cancelled":
		return SaleStatusCancelled, nil
	case "Unknown":
		return SaleStatusUnknown, nil
	}
	return SaleStatusUnknown, fmt.Errorf("invalid sale status %q", str)
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = SaleStatus(i)
		return nil
	}
	parsed, err := ParseSaleStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status by name so the partial unique index on active
// sale numbers can match it.
func (s SaleStatus) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *SaleStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = SaleStatusUnknown
	case string:
		parsed, err := ParseSaleStatus(v)
		if err != nil {
			return err
		}
		*s = parsed
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SaleStatus", value)
	}
	return nil
}
