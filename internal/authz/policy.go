// Package authz evaluates the static role/resource/action permission matrix.
// Decisions are pure lookups with no side effects; callers are responsible
// for auditing denials.
package authz

// Role is one of the fixed portal roles.
type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleReviewer  Role = "reviewer"
	RoleAuditor   Role = "auditor"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleSubmitter, RoleReviewer, RoleAuditor:
		return true
	}
	return false
}

// Resource is a protected resource type.
type Resource string

const (
	ResourceSubmission Resource = "submission"
	ResourceGrade      Resource = "grade"
	ResourceAuditLog   Resource = "audit_log"
)

// Action is an operation on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy maps role and resource to the set of permitted actions. Anything
// absent from the map is denied.
type Policy map[Role]map[Resource]map[Action]struct{}

// Engine answers authorization queries against an immutable policy.
type Engine struct {
	policy Policy
}

// NewEngine wraps a policy. The policy must not be mutated afterwards; build
// it once at startup and hand it over.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Default returns the portal permission matrix:
//
//	submitter: submission create/read, grade read
//	reviewer:  submission read/update, grade create/read/update, audit_log read
//	auditor:   submission read/delete, grade read, audit_log read/delete
func Default() Policy {
	return Policy{
		RoleSubmitter: {
			ResourceSubmission: actions(ActionCreate, ActionRead),
			ResourceGrade:      actions(ActionRead),
		},
		RoleReviewer: {
			ResourceSubmission: actions(ActionRead, ActionUpdate),
			ResourceGrade:      actions(ActionCreate, ActionRead, ActionUpdate),
			ResourceAuditLog:   actions(ActionRead),
		},
		RoleAuditor: {
			ResourceSubmission: actions(ActionRead, ActionDelete),
			ResourceGrade:      actions(ActionRead),
			ResourceAuditLog:   actions(ActionRead, ActionDelete),
		},
	}
}

// Allowed reports whether role may perform action on resource. Unknown
// roles, resources and actions all fall through to deny.
func (e *Engine) Allowed(role Role, resource Resource, action Action) bool {
	byResource, ok := e.policy[role]
	if !ok {
		return false
	}
	set, ok := byResource[resource]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

func actions(as ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(as))
	for _, a := range as {
		set[a] = struct{}{}
	}
	return set
}
