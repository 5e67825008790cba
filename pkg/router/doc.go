// Package router maps key combinations and command names to actions on the selected annotation.
//
// The binding table is static. Capability requirements and the selection are evaluated each time
// a command fires, never when it is registered, so enabling "skip" after the router was built is
// enough to make ctrl+space work.
package router
