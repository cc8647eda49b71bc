package ast

// Restriction is the usage restriction of a template definition or formal
// parameter: template(value), template(omit) or template(present).
type Restriction int

const (
	RestrictionNone Restriction = iota
	RestrictionValue
	RestrictionOmit
	RestrictionPresent
)

func (r Restriction) String() string {
	switch r {
	case RestrictionValue:
		return "value"
	case RestrictionOmit:
		return "omit"
	case RestrictionPresent:
		return "present"
	default:
		return "none"
	}
}

// ParseRestriction maps the keyword used in source to a Restriction.
func ParseRestriction(s string) (Restriction, bool) {
	switch s {
	case "", "none":
		return RestrictionNone, true
	case "value":
		return RestrictionValue, true
	case "omit":
		return RestrictionOmit, true
	case "present":
		return RestrictionPresent, true
	}
	return RestrictionNone, false
}

// IsLessRestrictive reports whether a definition restricted with refd may
// produce a template that needed does not accept.
func IsLessRestrictive(needed, refd Restriction) bool {
	switch needed {
	case RestrictionValue:
		return refd != RestrictionValue
	case RestrictionOmit:
		return refd != RestrictionValue && refd != RestrictionOmit
	case RestrictionPresent:
		return refd != RestrictionValue && refd != RestrictionPresent
	default:
		return false
	}
}
