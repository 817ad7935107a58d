package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// FilterKind selects how a Filter matches vessels.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterIdentifier
	FilterTypes
)

// Filter narrows the vessels a subscriber sees. The zero value matches all.
//
// On the wire it is either the string "all" or an object carrying exactly one
// of "identifier", "type" or "types".
type Filter struct {
	Kind       FilterKind
	Identifier string
	Types      []VesselType
}

// AllVessels matches every vessel.
func AllVessels() Filter { return Filter{Kind: FilterAll} }

// ByIdentifier matches one vessel.
func ByIdentifier(id string) Filter { return Filter{Kind: FilterIdentifier, Identifier: id} }

// ByTypes matches vessels whose type is in types.
func ByTypes(types ...VesselType) Filter { return Filter{Kind: FilterTypes, Types: types} }

func (f Filter) Matches(v *VesselState) bool {
	switch f.Kind {
	case FilterIdentifier:
		return v.Identifier == f.Identifier
	case FilterTypes:
		return slices.Contains(f.Types, v.VesselType)
	default:
		return true
	}
}

func (f Filter) Validate() error {
	switch f.Kind {
	case FilterAll:
		return nil
	case FilterIdentifier:
		if f.Identifier == "" {
			return fmt.Errorf("%w: empty identifier filter", ErrMalformedClientRequest)
		}
	case FilterTypes:
		if len(f.Types) == 0 {
			return fmt.Errorf("%w: empty type filter", ErrMalformedClientRequest)
		}
		for _, t := range f.Types {
			if !t.Valid() {
				return fmt.Errorf("%w: unknown vessel type %q", ErrMalformedClientRequest, t)
			}
		}
	default:
		return fmt.Errorf("%w: unknown filter kind %d", ErrMalformedClientRequest, f.Kind)
	}
	return nil
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterIdentifier:
		return "identifier=" + f.Identifier
	case FilterTypes:
		return fmt.Sprintf("types=%v", f.Types)
	default:
		return "all"
	}
}

type filterObject struct {
	Identifier string       `json:"identifier,omitempty"`
	Type       VesselType   `json:"type,omitempty"`
	Types      []VesselType `json:"types,omitempty"`
}

func (f Filter) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FilterIdentifier:
		return json.Marshal(filterObject{Identifier: f.Identifier})
	case FilterTypes:
		if len(f.Types) == 1 {
			return json.Marshal(filterObject{Type: f.Types[0]})
		}
		return json.Marshal(filterObject{Types: f.Types})
	default:
		return []byte(`"all"`), nil
	}
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "all" {
			return fmt.Errorf("%w: filter %q", ErrMalformedClientRequest, s)
		}
		*f = AllVessels()
		return nil
	}

	var obj filterObject
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedClientRequest, err)
	}

	set := 0
	if obj.Identifier != "" {
		set++
		*f = ByIdentifier(obj.Identifier)
	}
	if obj.Type != "" {
		set++
		*f = ByTypes(obj.Type)
	}
	if len(obj.Types) > 0 {
		set++
		*f = ByTypes(obj.Types...)
	}
	if set != 1 {
		return fmt.Errorf("%w: filter needs exactly one of identifier, type, types", ErrMalformedClientRequest)
	}
	return f.Validate()
}
