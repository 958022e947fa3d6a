// Package telemetry reports the state of the control cycle to the outside.
//
// Reports are protobuf messages wrapped in a Typed envelope identifying the
// message type, the sending car and a sequence number. Envelopes are written
// as packets to a PacketWriter: an MQTT topic, a length-prefixed stream or
// websocket connections.
package telemetry
