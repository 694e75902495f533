package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RoleKind discriminates a SupersetRole.
type RoleKind uint8

const (
	RoleNone RoleKind = iota
	RoleLeader
	RoleFollower
)

func (k RoleKind) String() string {
	switch k {
	case RoleLeader:
		return "leader"
	case RoleFollower:
		return "follower"
	default:
		return "none"
	}
}

func parseRoleKind(s string) (RoleKind, error) {
	switch s {
	case "", "none":
		return RoleNone, nil
	case "leader":
		return RoleLeader, nil
	case "follower":
		return RoleFollower, nil
	}
	return RoleNone, fmt.Errorf("unknown superset role %q", s)
}

// SupersetRole is an exercise's place in a superset: none, the leader of a
// group, or a follower of the group named by its leader's id. The fields are
// unexported so a role can only be built through NoRole, Leader or Follower.
type SupersetRole struct {
	kind  RoleKind
	group string
}

// NoRole returns the role of an exercise outside any superset.
func NoRole() SupersetRole { return SupersetRole{} }

// Leader returns the role of the exercise with the given id leading a superset.
func Leader(id string) SupersetRole { return SupersetRole{kind: RoleLeader, group: id} }

// Follower returns the role of an exercise following the leader groupID.
func Follower(groupID string) SupersetRole { return SupersetRole{kind: RoleFollower, group: groupID} }

func (r SupersetRole) Kind() RoleKind   { return r.kind }
func (r SupersetRole) IsLeader() bool   { return r.kind == RoleLeader }
func (r SupersetRole) IsFollower() bool { return r.kind == RoleFollower }
func (r SupersetRole) IsZero() bool     { return r.kind == RoleNone }

// GroupID returns the superset group: the leader's own id for a leader,
// the referenced leader id for a follower, and "" otherwise.
func (r SupersetRole) GroupID() string {
	if r.kind == RoleNone {
		return ""
	}
	return r.group
}

// Equal reports whether two roles are identical.
func (r SupersetRole) Equal(o SupersetRole) bool {
	return r.kind == o.kind && r.GroupID() == o.GroupID()
}

func (r SupersetRole) String() string {
	if r.kind == RoleNone {
		return "none"
	}
	return r.kind.String() + "(" + r.group + ")"
}

type roleWire struct {
	Kind    string `json:"kind" yaml:"kind"`
	GroupID string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
}

func (r SupersetRole) wire() roleWire {
	return roleWire{Kind: r.kind.String(), GroupID: r.GroupID()}
}

func (r *SupersetRole) fromWire(w roleWire) error {
	kind, err := parseRoleKind(w.Kind)
	if err != nil {
		return err
	}
	if kind != RoleNone && w.GroupID == "" {
		return fmt.Errorf("superset role %s without group_id", kind)
	}
	*r = SupersetRole{kind: kind}
	if kind != RoleNone {
		r.group = w.GroupID
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r SupersetRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// UnmarshalJSON implements json.Unmarshaler. A null role decodes as none.
func (r *SupersetRole) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoRole()
		return nil
	}
	var w roleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding superset role: %w", err)
	}
	return r.fromWire(w)
}

// MarshalYAML implements yaml.Marshaler.
func (r SupersetRole) MarshalYAML() (any, error) {
	return r.wire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Besides the mapping form it
// accepts the scalar "none".
func (r *SupersetRole) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		kind, err := parseRoleKind(node.Value)
		if err != nil {
			return err
		}
		if kind != RoleNone {
			return fmt.Errorf("superset role %s needs a group_id", kind)
		}
		*r = NoRole()
		return nil
	}
	var w roleWire
	if err := node.Decode(&w); err != nil {
		return fmt.Errorf("decoding superset role: %w", err)
	}
	return r.fromWire(w)
}
