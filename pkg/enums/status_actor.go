package enums

import "fmt"

// StatusActor identifies who drove a status transition.
type StatusActor string

const (
	StatusActorAgent  StatusActor = "agent"
	StatusActorAdmin  StatusActor = "admin"
	StatusActorSystem StatusActor = "system"
)

var validStatusActors = []StatusActor{
	StatusActorAgent,
	StatusActorAdmin,
	StatusActorSystem,
}

// String implements fmt.Stringer.
func (a StatusActor) String() string {
	return string(a)
}

// IsValid reports whether the value is a known StatusActor.
func (a StatusActor) IsValid() bool {
	for _, candidate := range validStatusActors {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseStatusActor converts raw input into a StatusActor.
func ParseStatusActor(value string) (StatusActor, error) {
	for _, candidate := range validStatusActors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid status actor %q", value)
}
