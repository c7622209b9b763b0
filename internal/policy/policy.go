// Package policy holds the authorization table consulted before every
// resource operation. Access is decided by (resource, role, action); a
// matching rule may additionally restrict visibility to rows where a
// named column equals the acting user's id.
package policy

import (
	"hoarding-service/internal/model"
)

// Action is a resource operation class.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names an entity type governed by the table.
type Resource string

const (
	ResourceUser       Resource = "users"
	ResourceHoarding   Resource = "hoardings"
	ResourceAssignment Resource = "assignments"
	ResourceContract   Resource = "contracts"
	ResourceBilling    Resource = "billings"
	ResourcePhoto      Resource = "photos"
)

// Rule is the grant attached to a (resource, role, action) cell.
// OwnerField names the column compared against the acting user's id;
// empty means the handler applies its own scoping (or none).
type Rule struct {
	OwnerField string
}

var table = map[Resource]map[model.Role]map[Action]Rule{
	ResourceUser: {
		model.RoleOwner: {
			ActionRead: {},
		},
	},
	ResourceHoarding: {
		model.RoleOwner: {
			ActionCreate: {},
			ActionRead:   {OwnerField: "owner_id"},
			ActionUpdate: {OwnerField: "owner_id"},
			ActionDelete: {OwnerField: "owner_id"},
		},
	},
	ResourceAssignment: {
		model.RoleOwner: {
			ActionCreate: {},
			ActionRead:   {OwnerField: "assigned_by_id"},
			ActionUpdate: {OwnerField: "assigned_by_id"},
			ActionDelete: {OwnerField: "assigned_by_id"},
		},
		model.RolePhotographer: {
			ActionRead:   {OwnerField: "photographer_id"},
			ActionUpdate: {OwnerField: "photographer_id"},
		},
	},
	ResourceContract: {
		model.RoleOwner: {
			ActionCreate: {},
			ActionRead:   {OwnerField: "owner_id"},
			ActionUpdate: {OwnerField: "owner_id"},
			ActionDelete: {OwnerField: "owner_id"},
		},
		model.RoleClient: {
			ActionRead: {OwnerField: "client_id"},
		},
	},
	ResourceBilling: {
		model.RoleOwner: {
			ActionCreate: {},
			ActionRead:   {OwnerField: "owner_id"},
			ActionUpdate: {OwnerField: "owner_id"},
			ActionDelete: {OwnerField: "owner_id"},
		},
		model.RoleClient: {
			ActionRead: {OwnerField: "client_id"},
			// Narrow mutation: the handler only accepts a transition to
			// "paid" from a client.
			ActionUpdate: {OwnerField: "client_id"},
		},
	},
	ResourcePhoto: {
		model.RoleOwner: {
			ActionCreate: {},
			// Owners see photos of their own hoardings; the join is
			// applied by the handler.
			ActionRead:   {},
			ActionUpdate: {},
			ActionDelete: {},
		},
		model.RolePhotographer: {
			ActionCreate: {},
			ActionRead:   {OwnerField: "uploader_id"},
			ActionDelete: {OwnerField: "uploader_id"},
		},
		model.RoleClient: {
			// Clients see photos of hoardings on their contracts; the
			// join is applied by the handler.
			ActionRead: {},
		},
	},
}

// Can reports whether role may perform action on resource, and returns
// the rule governing row-level scoping when it may.
func Can(role model.Role, resource Resource, action Action) (Rule, bool) {
	roles, ok := table[resource]
	if !ok {
		return Rule{}, false
	}
	actions, ok := roles[role]
	if !ok {
		return Rule{}, false
	}
	rule, ok := actions[action]
	return rule, ok
}
