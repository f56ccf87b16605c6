// internal/app/features/webhooks/payload.go
package webhooks

// The platform's webhook payloads are semi-structured: each action carries a
// different set of nested identity fields. Rather than probing fields ad hoc,
// each action is treated as a variant with its own JSON Schema, validated in
// one step before dispatch. Anything that fails validation is acknowledged
// without mutation.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/app/system/orgstate"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Event is the normalized form of an inbound webhook payload. Both
// member_invited shapes (platform-username invite and bare-email invite) and
// the membership.user shape of member_added/member_removed collapse into the
// same identity fields, so resolution follows a single path.
type Event struct {
	Action         orgstate.Action
	Login          string // GitHub login, empty for bare-email invites
	Email          string // invitation email, empty unless the payload carried one
	InstallationID string
}

const memberEventSchema = `{
	"type": "object",
	"required": ["action", "membership", "installation"],
	"properties": {
		"membership": {
			"type": "object",
			"required": ["user"],
			"properties": {
				"user": {
					"type": "object",
					"required": ["login"],
					"properties": {
						"login": {"type": "string", "minLength": 1}
					}
				}
			}
		},
		"installation": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": ["string", "integer"]}
			}
		}
	}
}`

// member_invited arrives in two shapes: a platform-username invite carries
// user.login, a bare-email invite carries only invitation.email. Either
// identity satisfies the schema; installation.id is always required.
const memberInvitedSchema = `{
	"type": "object",
	"required": ["action", "installation"],
	"properties": {
		"user": {
			"type": "object",
			"properties": {
				"login": {"type": "string", "minLength": 1}
			}
		},
		"invitation": {
			"type": "object",
			"properties": {
				"email": {"type": "string", "minLength": 1}
			}
		},
		"installation": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": ["string", "integer"]}
			}
		}
	},
	"anyOf": [
		{
			"required": ["user"],
			"properties": {
				"user": {"required": ["login"]}
			}
		},
		{
			"required": ["invitation"],
			"properties": {
				"invitation": {"required": ["email"]}
			}
		}
	]
}`

var actionSchemas = map[orgstate.Action]*jsonschema.Schema{
	orgstate.MemberAdded:   mustCompile("member_added.json", memberEventSchema),
	orgstate.MemberInvited: mustCompile("member_invited.json", memberInvitedSchema),
	orgstate.MemberRemoved: mustCompile("member_removed.json", memberEventSchema),
}

func mustCompile(name, src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("webhooks: bad schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("webhooks: add schema %s: %v", name, err))
	}
	schema, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("webhooks: compile schema %s: %v", name, err))
	}
	return schema
}

// ParseEvent decodes and validates one webhook body.
//
// It distinguishes the non-fatal ignore cases the reconciler must absorb:
// a missing or unrecognized action, and a payload that fails its action's
// schema. reason is non-empty exactly when evt is nil.
func ParseEvent(body []byte) (evt *Event, reason string) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, ReasonBadPayload
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ReasonBadPayload
	}

	rawAction, ok := obj["action"].(string)
	if !ok || rawAction == "" {
		return nil, ReasonNoAction
	}
	action := orgstate.Action(rawAction)
	schema, ok := actionSchemas[action]
	if !ok {
		return nil, ReasonUnknownAction
	}

	if err := schema.Validate(doc); err != nil {
		return nil, ReasonBadPayload
	}

	evt = &Event{
		Action:         action,
		InstallationID: stringValue(dig(obj, "installation", "id")),
	}
	switch action {
	case orgstate.MemberInvited:
		evt.Login = normalize.Login(stringValue(dig(obj, "user", "login")))
		evt.Email = normalize.Email(stringValue(dig(obj, "invitation", "email")))
	default:
		evt.Login = normalize.Login(stringValue(dig(obj, "membership", "user", "login")))
	}
	return evt, ""
}

// dig walks nested objects; returns nil when any hop is missing.
func dig(obj map[string]any, path ...string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// stringValue renders a leaf value as a string. The platform sends
// installation ids as JSON numbers; they are normalized to their decimal
// string form so they compare equal to the stored installation id.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
