// Package core defines the domain contracts shared by every TripMesh
// component: conversation turns, the external event protocol, routing
// decisions, agent outcomes, capability interfaces and the error taxonomy.
//
// Concrete implementations (agents, stores, model adapters) live in their
// own packages and depend on core; core depends on nothing but the standard
// library, uuid and the logging abstraction. This keeps domain contracts
// centralized while allowing pluggable backends without dependency cycles.
package core
