package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Action string

const (
	ActionFind    Action = "find"
	ActionFindOne Action = "findone"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPDF     Action = "pdf"
)

// ResourceSubmissions guards submission downloads.
const ResourceSubmissions = "form-submissions"

// Role names an actor class.
type Role string

const (
	RolePublic Role = "public"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

var ErrPermissionDenied = errors.New("permissions: denied")

// ErrUnknownRole is returned when parsing an unsupported role name.
var ErrUnknownRole = errors.New("permissions: unknown role")

type Error struct {
	Permission string
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// ParseRole normalizes a role name.
func ParseRole(value string) (Role, error) {
	switch role := Role(normalizeToken(value)); role {
	case RolePublic, RoleEditor, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

// Join builds a permission token from resource and action.
func Join(resource string, action Action) string {
	res := normalizeToken(resource)
	act := normalizeToken(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

// RolePermissions returns the grants of role over collections. Public actors
// read; editors also create and update; admins also delete. Submission PDFs
// are restricted to editors and admins.
func RolePermissions(role Role, collections ...string) Set {
	var actions []Action
	switch role {
	case RolePublic:
		actions = []Action{ActionFind, ActionFindOne}
	case RoleEditor:
		actions = []Action{ActionFind, ActionFindOne, ActionCreate, ActionUpdate}
	case RoleAdmin:
		actions = []Action{ActionFind, ActionFindOne, ActionCreate, ActionUpdate, ActionDelete}
	default:
		return Set{}
	}
	perms := make([]string, 0, len(collections)*len(actions)+1)
	for _, collection := range collections {
		for _, action := range actions {
			perms = append(perms, Join(collection, action))
		}
	}
	if role == RoleEditor || role == RoleAdmin {
		perms = append(perms, Join(ResourceSubmissions, ActionPDF))
	}
	return NewSet(perms...)
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		normalized := normalizePermission(perm)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	if len(s) == 0 {
		return false
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	resource, _ := splitPermission(normalized)
	if resource != "" {
		if _, ok := s[resource+":*"]; ok {
			return true
		}
	}
	_, ok := s["*"]
	return ok
}

// Actor is the authenticated caller of a request.
type Actor struct {
	Name    string
	Role    Role
	Checker Checker
}

// Anonymous reports whether the actor is the unauthenticated public role.
func (a Actor) Anonymous() bool { return a.Role == "" || a.Role == RolePublic }

type contextKey string

const actorKey contextKey = "cms.permissions.actor"

// WithActor stores the request actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the stored actor, defaulting to an anonymous one.
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey).(Actor); ok {
		return actor
	}
	return Actor{Role: RolePublic}
}

// Require enforces permission for the actor stored on ctx. Contexts without
// an actor or checker are denied.
func Require(ctx context.Context, permission string) error {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return nil
	}
	actor := ActorFromContext(ctx)
	if actor.Checker != nil && actor.Checker.Allowed(normalized) {
		return nil
	}
	return Error{Permission: normalized}
}

func splitPermission(permission string) (string, Action) {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return "", ""
	}
	parts := strings.SplitN(normalized, ":", 2)
	resource := normalizeToken(parts[0])
	if len(parts) == 1 {
		return resource, ""
	}
	return resource, Action(normalizeToken(parts[1]))
}

func normalizePermission(permission string) string {
	trimmed := strings.TrimSpace(permission)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
