// Package memberregistry owns communities and their voter rosters inside the
// community-governance context.
//
// The module tracks community admin assignment, voter registration and
// display-name refresh, the approve/reject review flow, and weight changes
// with an audit reason. It keeps business rules in the application/domain
// layers and isolates infrastructure concerns behind ports and adapters.
package memberregistry
