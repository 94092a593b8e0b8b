// Package core defines the conversation data model shared by every other
// skillmesh package: turns, tool call requests and results, the append-only
// transcript, the error taxonomy and token estimation helpers. It has no
// dependencies on the orchestration or provider layers so that stores and
// gateways can be implemented against it without import cycles.
package core
