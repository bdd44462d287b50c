package plans

import "github.com/Ryan02062001/thankaroo-backend/pkg/enums"

// Limits captures the quota ceilings attached to a plan tier. A nil field
// means unlimited.
type Limits struct {
	MaxLists            *int `json:"max_lists"`
	MaxGiftsPerList     *int `json:"max_gifts_per_list"`
	MaxAIDraftsPerMonth *int `json:"max_ai_drafts_per_month"`
}

var (
	freeMaxLists     = 1
	freeMaxGifts     = 25
	freeMaxAIDrafts  = 5
	weddingMaxLists  = 3
	weddingMaxDrafts = 100
)

// planLimits is the source of truth for quota enforcement. Tiers are fixed
// at compile time; pricing lives in Stripe, limits live here.
var planLimits = map[enums.PlanID]Limits{
	enums.PlanFree: {
		MaxLists:            &freeMaxLists,
		MaxGiftsPerList:     &freeMaxGifts,
		MaxAIDraftsPerMonth: &freeMaxAIDrafts,
	},
	enums.PlanWedding: {
		MaxLists:            &weddingMaxLists,
		MaxGiftsPerList:     nil,
		MaxAIDraftsPerMonth: &weddingMaxDrafts,
	},
	enums.PlanPro: {
		MaxLists:            nil,
		MaxGiftsPerList:     nil,
		MaxAIDraftsPerMonth: nil,
	},
}

// subscriptionPlans maps Stripe price lookup keys to the plan they grant.
var subscriptionPlans = map[string]enums.PlanID{
	"thankaroo_pro_monthly": enums.PlanPro,
	"thankaroo_pro_yearly":  enums.PlanPro,
}

// entitlementPlans maps Stripe product lookup keys for one-time purchases
// to the plan they grant.
var entitlementPlans = map[string]enums.PlanID{
	"thankaroo_wedding_pass": enums.PlanWedding,
}

// LimitsFor returns the quota limits for the given plan. Unknown plans fall
// back to free limits.
func LimitsFor(plan enums.PlanID) Limits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[enums.PlanFree]
}

// PlanForPriceLookupKey resolves a subscription price lookup key to a plan.
func PlanForPriceLookupKey(key string) (enums.PlanID, bool) {
	plan, ok := subscriptionPlans[key]
	return plan, ok
}

// PlanForProductLookupKey resolves a one-time product lookup key to a plan.
func PlanForProductLookupKey(key string) (enums.PlanID, bool) {
	plan, ok := entitlementPlans[key]
	return plan, ok
}

// SubscriptionLookupKeys lists every price lookup key that grants a plan.
func SubscriptionLookupKeys() []string {
	keys := make([]string, 0, len(subscriptionPlans))
	for key := range subscriptionPlans {
		keys = append(keys, key)
	}
	return keys
}

// EntitlementLookupKeys lists every one-time product lookup key that grants
// a plan.
func EntitlementLookupKeys() []string {
	keys := make([]string, 0, len(entitlementPlans))
	for key := range entitlementPlans {
		keys = append(keys, key)
	}
	return keys
}

// rank orders tiers so the best grant wins when multiple apply.
func rank(plan enums.PlanID) int {
	switch plan {
	case enums.PlanPro:
		return 2
	case enums.PlanWedding:
		return 1
	default:
		return 0
	}
}

// Best returns the higher of two plan tiers.
func Best(a, b enums.PlanID) enums.PlanID {
	if rank(b) > rank(a) {
		return b
	}
	return a
}
