// Package agent contains the orchestration core: the Orchestrator drives the
// tool-calling loop for one session at a time per session, and the
// Coordinator decomposes multi-goal tasks across several Orchestrator
// instances and synthesizes one combined answer.
package agent
