// Package services implements the driving port interfaces.
// Services contain the core business logic - boundary detection,
// embedding resolution and context fitting - and orchestrate calls
// to driven ports (adapters).
package services
