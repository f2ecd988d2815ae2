// Package superadmin exposes the impersonation endpoints of the operator
// console. A master-organization member can enter any tenant's context while
// the session remembers where they came from; the tenancy resolver keeps
// their superuser privileges for the duration and the stop endpoint returns
// them home.
package superadmin
