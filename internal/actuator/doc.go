// Package actuator drives the hub's fan light.
//
// Driver wraps a gpio.Writer and swallows write faults so a stuck or
// missing output never halts the hub. Pulser owns the actuator mode, the
// silence override and the waveform phase, and runs the waveform on its
// own loop independent of message arrival.
package actuator
