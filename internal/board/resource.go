package board

import "fmt"

// Resource is a producible commodity. NoResource marks the desert and
// generic 3:1 harbors.
type Resource int

const (
	NoResource Resource = iota
	Lumber
	Brick
	Wool
	Grain
	Ore
)

// AllResources lists every producible resource in canonical order.
var AllResources = [...]Resource{Lumber, Brick, Wool, Grain, Ore}

// String returns the wire name of the resource
func (r Resource) String() string {
	switch r {
	case Lumber:
		return "lumber"
	case Brick:
		return "brick"
	case Wool:
		return "wool"
	case Grain:
		return "grain"
	case Ore:
		return "ore"
	default:
		return ""
	}
}

// ParseResource converts a wire name back into a Resource. The empty
// string parses as NoResource.
func ParseResource(s string) (Resource, error) {
	switch s {
	case "":
		return NoResource, nil
	case "lumber":
		return Lumber, nil
	case "brick":
		return Brick, nil
	case "wool":
		return Wool, nil
	case "grain":
		return Grain, nil
	case "ore":
		return Ore, nil
	}
	return NoResource, fmt.Errorf("unknown resource %q", s)
}

// MarshalText lets resources be used as JSON map keys.
func (r Resource) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resource) UnmarshalText(text []byte) error {
	parsed, err := ParseResource(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
