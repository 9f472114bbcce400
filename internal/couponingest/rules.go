package couponingest

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

// knownRules gives special codes their own discount. Every other valid code
// gets defaultRule.
var knownRules = map[string]coupon.Rule{
	"WELCOME10":  coupon.Welcome10(),
	"FESTIVE20":  {DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(20), Description: "Festive offer: 20% off"},
	"BUYGETONE":  {DiscountType: coupon.DiscountFreeLowest, MinItems: 2, Description: "Buy 2, get the cheapest item free"},
	"BIRTHDAY":   {DiscountType: coupon.DiscountFreeLowest, Description: "Birthday treat: cheapest item free"},
	"FLAT500OFF": {DiscountType: coupon.DiscountFixed, Value: decimal.NewFromInt(500), Description: "₹500 off your order"},
	"MONSOON15":  {DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(15), MaxDiscount: decimal.NewFromInt(1000), Description: "Monsoon sale: 15% off, up to ₹1,000"},
}

var defaultRule = coupon.Rule{
	DiscountType: coupon.DiscountPercentage,
	Value:        decimal.NewFromInt(10),
	Description:  "Promo code: 10% off",
}

// Rules assigns a discount rule to every code.
func Rules(codes []string) []coupon.Rule {
	rules := make([]coupon.Rule, len(codes))
	for i, code := range codes {
		r, ok := knownRules[coupon.NormalizeCode(code)]
		if !ok {
			r = defaultRule
		}
		r.Code = coupon.NormalizeCode(code)
		rules[i] = r
	}
	return rules
}
