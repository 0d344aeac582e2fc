// Package sensor obtains heart-rate readings from the ring by invoking the
// external Bluetooth client once per poll.
//
// The Client runs the command under a bounded timeout, takes the newest
// value out of the batched readings printed on stdout, and classifies
// failures by matching stderr against the client's known error signatures.
// The Source interface lets the monitor swap the subprocess for an
// in-process client or a test double.
package sensor
