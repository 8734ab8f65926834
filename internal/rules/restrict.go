package rules

import "fmt"

// Level grades how hard a restriction violation blocks a save.
type Level int

const (
	// LevelAdvisory is informational only and never blocks a save.
	LevelAdvisory Level = iota
	// LevelConditional blocks depending on the proposed value.
	LevelConditional
	// LevelStructural blocks unconditionally while its trigger holds.
	LevelStructural
)

func (l Level) String() string {
	switch l {
	case LevelStructural:
		return "structural"
	case LevelConditional:
		return "conditional"
	case LevelAdvisory:
		return "advisory"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Blocking reports whether a violation at this level must prevent the save.
func (l Level) Blocking() bool { return l == LevelStructural || l == LevelConditional }

// MarshalText renders the level name for JSON responses.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Rule is one declarative entry of the restriction table. Violated reports
// whether applying the snapshot would break the rule given the context;
// rules are stateless and evaluated in table order.
type Rule struct {
	ID              string
	Field           Field
	Level           Level
	Message         string
	SuggestedAction string
	Violated        func(ctx RestrictionContext, form FormSnapshot) bool
	Details         func(ctx RestrictionContext, form FormSnapshot) string
}

// Violation is one broken restriction for a proposed patch.
type Violation struct {
	Field           Field  `json:"field"`
	RuleID          string `json:"rule_id"`
	Level           Level  `json:"level"`
	Message         string `json:"message"`
	Details         string `json:"details,omitempty"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// Restriction rule IDs.
const (
	RuleFeeLockedAfterGatewayPayment = "fee_locked_after_gateway_payment"
	RulePaymentMethodRemovalLocked   = "payment_method_removal_locked"
	RuleCapacityBelowAttendance      = "capacity_below_attendance"
)

// restrictionTable is the authoritative, ordered rule set. Fields absent
// from it are never locked by attendance or payment state; they remain
// subject only to ValidateCorrelations on the merged record.
var restrictionTable = []Rule{
	{
		ID:              RuleFeeLockedAfterGatewayPayment,
		Field:           FieldFee,
		Level:           LevelStructural,
		Message:         "the fee cannot change after an online payment has been received",
		SuggestedAction: "refund existing payments before adjusting the fee",
		Violated: func(ctx RestrictionContext, form FormSnapshot) bool {
			return ctx.HasGatewayPaid && form.Fee != ctx.Fee
		},
		Details: func(ctx RestrictionContext, form FormSnapshot) string {
			return fmt.Sprintf("fee is locked at %d", ctx.Fee)
		},
	},
	{
		ID:              RulePaymentMethodRemovalLocked,
		Field:           FieldPaymentMethods,
		Level:           LevelStructural,
		Message:         "enabled payment methods cannot be removed once attendees have registered",
		SuggestedAction: "keep the existing methods; adding new ones is allowed",
		Violated: func(ctx RestrictionContext, form FormSnapshot) bool {
			if !ctx.HasAttendees {
				return false
			}
			for m := range ctx.PaymentMethods {
				if !form.PaymentMethods[m] {
					return true
				}
			}
			return false
		},
		Details: func(ctx RestrictionContext, form FormSnapshot) string {
			for m := range ctx.PaymentMethods {
				if !form.PaymentMethods[m] {
					return fmt.Sprintf("method %q is in use and cannot be removed", m)
				}
			}
			return ""
		},
	},
	{
		ID:              RuleCapacityBelowAttendance,
		Field:           FieldCapacity,
		Level:           LevelConditional,
		Message:         "capacity cannot be set below the current number of attendees",
		SuggestedAction: "choose a capacity at or above the current headcount, or leave it unlimited",
		Violated: func(ctx RestrictionContext, form FormSnapshot) bool {
			return form.Capacity != nil && *form.Capacity < ctx.AttendeeCount
		},
		Details: func(ctx RestrictionContext, form FormSnapshot) string {
			return fmt.Sprintf("%d attendees are already registered", ctx.AttendeeCount)
		},
	},
}

// RestrictionRules returns a copy of the rule table, in evaluation order.
// Exposed for documentation surfaces; the engine itself always uses the
// internal table.
func RestrictionRules() []Rule {
	out := make([]Rule, len(restrictionTable))
	copy(out, restrictionTable)
	return out
}

// EvaluateViolations runs the restriction table against a proposed edit.
// Only rules whose field the patch touches are evaluated, so a locked field
// that is not being changed never produces a violation. Results preserve
// table order, which makes the output stable for tests and UI grouping.
//
// An empty result means the save is permitted. Callers must block the save
// on any violation whose level is Blocking and may display the rest.
//
// EvaluateViolations never returns an error for invalid user input; it
// panics only on a context that was not produced by NewRestrictionContext,
// which indicates a caller bug.
func EvaluateViolations(ctx RestrictionContext, form FormSnapshot, patch Patch) []Violation {
	if !ctx.built {
		panic("rules: RestrictionContext must be created with NewRestrictionContext")
	}

	var out []Violation
	for _, rule := range restrictionTable {
		if !patch.Has(rule.Field) {
			continue
		}
		if !rule.Violated(ctx, form) {
			continue
		}
		v := Violation{
			Field:           rule.Field,
			RuleID:          rule.ID,
			Level:           rule.Level,
			Message:         rule.Message,
			SuggestedAction: rule.SuggestedAction,
		}
		if rule.Details != nil {
			v.Details = rule.Details(ctx, form)
		}
		out = append(out, v)
	}
	return out
}

// HasBlocking reports whether any violation in vs must prevent the save.
func HasBlocking(vs []Violation) bool {
	for _, v := range vs {
		if v.Level.Blocking() {
			return true
		}
	}
	return false
}
