// Package services provides the centralized service registry for
// tubefocusd.
//
// Registry pattern for accessing all core services (coach, scorer, intent
// classifier, auditor, librarian, video metadata). Use NewRegistry() to
// create a registry with service instances, then accessor methods to
// retrieve individual services.
package services
