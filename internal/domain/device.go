package domain

import "time"

// Device is a physical monitoring unit (corresponds to the devices table).
// A device binds to at most one sector and one owning user at a time.
type Device struct {
	DeviceID       string    `db:"device_id"` // UUID, PRIMARY KEY
	DeviceName     string    `db:"device_name"`
	DeviceLocation string    `db:"device_location"`
	CreatedAt      time.Time `db:"created_at"`

	LinkSector *string `db:"link_sector"` // nullable, UUID of bound sector
	LinkUser   *string `db:"link_user"`   // nullable, id of owning user
}

// Linked reports whether the device is already bound.
func (d *Device) Linked() bool {
	return d.LinkSector != nil || d.LinkUser != nil
}
