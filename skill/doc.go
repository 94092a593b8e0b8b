// Package skill implements the capability subsystem: skills bundle named,
// schema-described tools that the reasoning loop can invoke with validated
// arguments. The Registry resolves tool names to handlers, enforces the
// whitelist/blacklist configuration and the human-confirmation policy, and
// guarantees globally unique tool names across enabled skills at load time.
package skill
