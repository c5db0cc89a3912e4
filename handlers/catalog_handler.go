package handlers

import (
	"net/http"

	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/utils"
)

// Plan is one entry of the public pricing catalog
type Plan struct {
	ID       models.SubscriptionTier `json:"id"`
	Name     string                  `json:"name"`
	Price    int                     `json:"price"`
	Features []string                `json:"features"`
}

// Plans is the static subscription catalog, cheapest first
var Plans = []Plan{
	{
		ID:       models.TierFree,
		Name:     "Free",
		Price:    0,
		Features: []string{"5 Users", "Basic WhatsApp Integration", "100 Messages/month"},
	},
	{
		ID:       models.TierStarter,
		Name:     "Starter",
		Price:    29,
		Features: []string{"25 Users", "Advanced Automation", "5,000 Messages/month", "Analytics"},
	},
	{
		ID:       models.TierProfessional,
		Name:     "Professional",
		Price:    99,
		Features: []string{"100 Users", "Multi-channel Integration", "50,000 Messages/month", "API Access"},
	},
	{
		ID:       models.TierEnterprise,
		Name:     "Enterprise",
		Price:    299,
		Features: []string{"Unlimited Users", "Custom Integrations", "Unlimited Messages", "Priority Support"},
	},
}

// HandlePlans handles GET /api/plans
func HandlePlans(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, Plans)
}

// HandleEmptyList answers the messaging endpoints (campaigns, templates,
// contacts) that have no backing store yet.
func HandleEmptyList(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, []interface{}{})
}
