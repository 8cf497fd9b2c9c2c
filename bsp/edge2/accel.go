package edge2

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lis3dh"
)

// Accelerometer returns the on-board LIS2DH12 on bus, addressed at
// AccelAddress. The part is register compatible with the LIS3DH. bus must
// be the IOM3 instance. Configure is left to the caller.
func Accelerometer(bus drivers.I2C) lis3dh.Device {
	d := lis3dh.New(bus)
	d.Address = AccelAddress
	return d
}
