package domain

import "fmt"

// UnknownAnimalError is returned by store operations referencing an animal
// that does not exist.
type UnknownAnimalError struct {
	ID string
}

func (e UnknownAnimalError) Error() string {
	return fmt.Sprintf("animal %q not found", e.ID)
}

// UnknownDayError is returned by store operations referencing a day that
// does not exist.
type UnknownDayError struct {
	ID string
}

func (e UnknownDayError) Error() string {
	return fmt.Sprintf("day %q not found", e.ID)
}

// UnknownDeviceTypeError is returned when a device-type key is not present
// in the registry.
type UnknownDeviceTypeError struct {
	Name string
}

func (e UnknownDeviceTypeError) Error() string {
	return fmt.Sprintf("device type %q not registered", e.Name)
}

// AnimalReferencedError is returned when deleting an animal that still owns
// recording days.
type AnimalReferencedError struct {
	ID      string
	DayRefs int
}

func (e AnimalReferencedError) Error() string {
	return fmt.Sprintf("animal %q still referenced by %d day(s)", e.ID, e.DayRefs)
}

// DecodeError is returned when wire text cannot be parsed into a document.
// The failed decode never partially populates a document; callers either get
// a complete document or this error.
type DecodeError struct {
	Reason string
	Err    error
}

func (e DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode: %s", e.Reason)
}

// Unwrap exposes the underlying parser error for errors.Is/As chains.
func (e DecodeError) Unwrap() error { return e.Err }
