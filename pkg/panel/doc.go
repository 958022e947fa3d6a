// Package panel implements the link between the controller and the sensor
// and motor panels.
//
// Panels exchange frames over a peer-to-peer serial channel:
//
//	0xA5 | code | len | data[len] | crc8
//
// The CRC-8 (polynomial 0xD5) covers code, len and data. A receiver hunts
// for the sync byte, so the stream recovers by itself from lost or corrupted
// bytes. Corrupted frames are dropped and counted, never repaired.
//
// Producers: line sensor panel (line detections), motor panel (odometry).
// Consumer: the controller, which answers with actuation commands.
package panel
