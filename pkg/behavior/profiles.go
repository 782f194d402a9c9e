package behavior

import (
	"context"
	"time"
)

var trendingTerms = []string{"viral", "trending", "popular", "featured"}

var burstTerms = []string{"laptop", "phone", "book"}

// Test types understood by MixFor and the report objectives.
const (
	TestTypeLoad      = "load"
	TestTypeStress    = "stress"
	TestTypeSpike     = "spike"
	TestTypeEndurance = "endurance"
	TestTypeGeneric   = "generic"
)

// DefaultMix is the general-purpose shopper distribution: mostly casual
// browsers, few power users.
func DefaultMix() Mix {
	return Mix{
		{Profile: "casual", Weight: 50},
		{Profile: "active", Weight: 30},
		{Profile: "frequent", Weight: 15},
		{Profile: "power", Weight: 5},
	}
}

// MixFor returns the profile distribution for a test type.
func MixFor(testType string) Mix {
	switch testType {
	case TestTypeLoad:
		return Mix{
			{Profile: "load", Weight: 60},
			{Profile: "peak-hour", Weight: 25},
			{Profile: "background", Weight: 15},
		}
	case TestTypeStress:
		return Mix{
			{Profile: "stress", Weight: 40},
			{Profile: "high-frequency", Weight: 30},
			{Profile: "db-stress", Weight: 30},
		}
	case TestTypeSpike:
		return Mix{
			{Profile: "spike", Weight: 50},
			{Profile: "flash-sale", Weight: 30},
			{Profile: "social-media", Weight: 20},
		}
	case TestTypeEndurance:
		return Mix{
			{Profile: "endurance", Weight: 40},
			{Profile: "session-based", Weight: 30},
			{Profile: "loyal", Weight: 25},
			{Profile: "maintenance", Weight: 5},
		}
	default:
		return DefaultMix()
	}
}

// Profiles returns the full registry of behavior profiles keyed by name.
func Profiles() map[string]Profile {
	ps := []Profile{
		casualProfile(),
		activeProfile(),
		frequentProfile(),
		powerProfile(),
		loadProfile(),
		peakHourProfile(),
		backgroundProfile(),
		stressProfile(),
		highFrequencyProfile(),
		dbStressProfile(),
		spikeProfile(),
		flashSaleProfile(),
		socialMediaProfile(),
		enduranceProfile(),
		sessionBasedProfile(),
		loyalProfile(),
		maintenanceProfile(),
	}
	out := make(map[string]Profile, len(ps))
	for _, p := range ps {
		out[p.Name] = p
	}
	return out
}

// casualProfile mostly browses without purchasing.
func casualProfile() Profile {
	return Profile{
		Name:     "casual",
		ThinkMin: time.Second,
		ThinkMax: 3 * time.Second,
		Tasks: []Task{
			{Name: "browse", Weight: 5, Run: browseProducts},
			{Name: "search", Weight: 3, Run: searchProducts},
			{Name: "register_and_browse", Weight: 1, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				browseProducts(ctx, e)
			}},
		},
	}
}

// activeProfile browses and occasionally completes a purchase.
func activeProfile() Profile {
	return Profile{
		Name:     "active",
		ThinkMin: time.Second,
		ThinkMax: 3 * time.Second,
		Tasks: []Task{
			{Name: "browse", Weight: 3, Run: browseProducts},
			{Name: "search_and_browse", Weight: 2, Run: func(ctx context.Context, e *Env) {
				searchProducts(ctx, e)
				browseProducts(ctx, e)
			}},
			{Name: "shopping_journey", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.3) {
					purchase(ctx, e, time.Second, 3*time.Second)
				}
			}},
			{Name: "order_history", Weight: 1, Run: checkOrders},
		},
	}
}

// frequentProfile purchases regularly.
func frequentProfile() Profile {
	return Profile{
		Name:     "frequent",
		ThinkMin: time.Second,
		ThinkMax: 3 * time.Second,
		Tasks: []Task{
			{Name: "browse", Weight: 2, Run: browseProducts},
			{Name: "purchase_flow", Weight: 3, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				searchProducts(ctx, e)
				browseProducts(ctx, e)
				if e.Chance(0.6) {
					purchase(ctx, e, 500*time.Millisecond, 2*time.Second)
				}
			}},
			{Name: "order_history", Weight: 1, Run: checkOrders},
		},
	}
}

// powerProfile uses the system intensively with short think times.
func powerProfile() Profile {
	return Profile{
		Name:     "power",
		ThinkMin: 500 * time.Millisecond,
		ThinkMax: 1500 * time.Millisecond,
		Tasks: []Task{
			{Name: "rapid_browsing", Weight: 2, Run: func(ctx context.Context, e *Env) {
				browseProducts(ctx, e)
				searchProducts(ctx, e)
			}},
			{Name: "multiple_purchases", Weight: 3, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(1, 3); i < n && ctx.Err() == nil; i++ {
					purchase(ctx, e, 0, 0)
					e.pause(ctx, 200*time.Millisecond, time.Second)
				}
			}},
			{Name: "check_everything", Weight: 1, Run: func(ctx context.Context, e *Env) {
				checkOrders(ctx, e)
				browseProducts(ctx, e)
			}},
		},
	}
}

// loadProfile is the standard load-test shopper.
func loadProfile() Profile {
	return Profile{
		Name:     "load",
		ThinkMin: time.Second,
		ThinkMax: 4 * time.Second,
		Tasks: []Task{
			{Name: "browse_and_search", Weight: 4, Run: func(ctx context.Context, e *Env) {
				if e.Chance(0.6) {
					browseProducts(ctx, e)
				} else {
					searchProducts(ctx, e)
				}
			}},
			{Name: "register_and_browse", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !e.State.Registered() && !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
			}},
			{Name: "purchase_flow", Weight: 1, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.25) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "order_status", Weight: 1, Run: checkOrders},
		},
	}
}

// peakHourProfile shops faster with higher purchase intent.
func peakHourProfile() Profile {
	return Profile{
		Name:     "peak-hour",
		ThinkMin: 500 * time.Millisecond,
		ThinkMax: 2 * time.Second,
		Tasks: []Task{
			{Name: "rapid_browsing", Weight: 3, Run: browseProducts},
			{Name: "quick_search_purchase", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				searchProducts(ctx, e)
				if e.Chance(0.4) {
					purchase(ctx, e, 0, 0)
				}
			}},
		},
	}
}

// backgroundProfile is a slow, low-activity browser.
func backgroundProfile() Profile {
	return Profile{
		Name:     "background",
		ThinkMin: 3 * time.Second,
		ThinkMax: 8 * time.Second,
		Tasks: []Task{
			{Name: "casual_browsing", Weight: 5, Run: browseProducts},
			{Name: "occasional_search", Weight: 1, Run: searchProducts},
		},
	}
}

// stressProfile hits the services aggressively with minimal think time.
func stressProfile() Profile {
	return Profile{
		Name:     "stress",
		ThinkMin: 500 * time.Millisecond,
		ThinkMax: 2 * time.Second,
		Tasks: []Task{
			{Name: "aggressive_browsing", Weight: 3, Run: func(ctx context.Context, e *Env) {
				browseProducts(ctx, e)
				if e.Chance(0.5) {
					searchProducts(ctx, e)
				}
			}},
			{Name: "rapid_user_flow", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.3) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "concurrent_operations", Weight: 2, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				for i, n := 0, e.between(2, 4); i < n && ctx.Err() == nil; i++ {
					if e.Chance(0.5) {
						browseProducts(ctx, e)
					} else {
						searchProducts(ctx, e)
					}
				}
			}},
			{Name: "order_system_stress", Weight: 1, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(1, 3); i < n && ctx.Err() == nil; i++ {
					purchase(ctx, e, 0, 0)
					checkOrders(ctx, e)
				}
			}},
		},
	}
}

// highFrequencyProfile fires requests with almost no pauses.
func highFrequencyProfile() Profile {
	return Profile{
		Name:     "high-frequency",
		ThinkMin: 100 * time.Millisecond,
		ThinkMax: 500 * time.Millisecond,
		Tasks: []Task{
			{Name: "rapid_fire_browsing", Weight: 4, Run: func(ctx context.Context, e *Env) {
				for i, n := 0, e.between(3, 6); i < n && ctx.Err() == nil; i++ {
					browseProducts(ctx, e)
				}
			}},
			{Name: "burst_search", Weight: 2, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				for _, term := range burstTerms {
					if ctx.Err() != nil {
						return
					}
					_ = e.Client.SearchAs(ctx, term, "Burst Search")
				}
			}},
			{Name: "cart_churn", Weight: 1, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(2, 5); i < n && ctx.Err() == nil; i++ {
					_ = e.Client.CreateCart(ctx, e.State)
				}
			}},
		},
	}
}

// dbStressProfile concentrates on read- and write-heavy operations.
func dbStressProfile() Profile {
	return Profile{
		Name:     "db-stress",
		ThinkMin: 200 * time.Millisecond,
		ThinkMax: time.Second,
		Tasks: []Task{
			{Name: "heavy_reads", Weight: 3, Run: func(ctx context.Context, e *Env) {
				for i, n := 0, e.between(5, 10); i < n && ctx.Err() == nil; i++ {
					_ = e.Client.GetProducts(ctx, e.State)
				}
			}},
			{Name: "heavy_writes", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(3, 6); i < n && ctx.Err() == nil; i++ {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "mixed_operations", Weight: 1, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(4, 8); i < n && ctx.Err() == nil; i++ {
					if e.Chance(0.5) {
						browseProducts(ctx, e)
					} else {
						_ = e.Client.CreateCart(ctx, e.State)
					}
				}
			}},
		},
	}
}

// spikeProfile models sudden-burst traffic.
func spikeProfile() Profile {
	return Profile{
		Name:     "spike",
		ThinkMin: 300 * time.Millisecond,
		ThinkMax: 1500 * time.Millisecond,
		Tasks: []Task{
			{Name: "spike_browsing", Weight: 4, Run: func(ctx context.Context, e *Env) {
				browseProducts(ctx, e)
				if e.Chance(0.6) {
					searchProducts(ctx, e)
				}
			}},
			{Name: "spike_registration", Weight: 3, Run: func(ctx context.Context, e *Env) {
				if e.State.Registered() {
					return
				}
				if !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.4) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "spike_order_activity", Weight: 2, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				for i, n := 0, e.between(2, 4); i < n && ctx.Err() == nil; i++ {
					randomAction(ctx, e)
				}
			}},
			{Name: "spike_system_stress", Weight: 1, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				for i, n := 0, e.between(3, 6); i < n && ctx.Err() == nil; i++ {
					if e.Chance(0.3) {
						_ = e.Client.CreateCart(ctx, e.State)
					}
					if e.Chance(0.4) {
						checkOrders(ctx, e)
					}
					if e.Chance(0.5) {
						browseProducts(ctx, e)
					}
				}
			}},
		},
	}
}

// flashSaleProfile models frenzied flash-sale shoppers.
func flashSaleProfile() Profile {
	return Profile{
		Name:     "flash-sale",
		ThinkMin: 100 * time.Millisecond,
		ThinkMax: 800 * time.Millisecond,
		Tasks: []Task{
			{Name: "flash_sale_frenzy", Weight: 5, Run: func(ctx context.Context, e *Env) {
				browseProducts(ctx, e)
				if !register(ctx, e) {
					return
				}
				if e.Chance(0.7) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "refresh_product_page", Weight: 2, Run: func(ctx context.Context, e *Env) {
				for i, n := 0, e.between(3, 8); i < n && ctx.Err() == nil; i++ {
					_ = e.Client.GetProducts(ctx, e.State)
					e.pause(ctx, 100*time.Millisecond, 300*time.Millisecond)
				}
			}},
			{Name: "competitive_purchasing", Weight: 1, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				for i, n := 0, e.between(2, 5); i < n && ctx.Err() == nil; i++ {
					if e.Client.CreateCart(ctx, e.State) == nil && e.Chance(0.8) {
						_ = e.Client.PlaceOrder(ctx, e.State)
					}
				}
			}},
		},
	}
}

// socialMediaProfile models users arriving from shared links.
func socialMediaProfile() Profile {
	return Profile{
		Name:     "social-media",
		ThinkMin: 500 * time.Millisecond,
		ThinkMax: 2 * time.Second,
		Tasks: []Task{
			{Name: "social_media_landing", Weight: 3, Run: func(ctx context.Context, e *Env) {
				term := trendingTerms[e.Rand.Intn(len(trendingTerms))]
				_ = e.Client.SearchAs(ctx, term, "Social Media Search")
				browseProducts(ctx, e)
				if e.Chance(0.3) {
					if !register(ctx, e) {
						return
					}
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "influencer_driven_purchase", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.5) {
					purchase(ctx, e, 0, 0)
				}
			}},
		},
	}
}

// enduranceProfile paces steady activity for long runs.
func enduranceProfile() Profile {
	return Profile{
		Name:     "endurance",
		ThinkMin: 2 * time.Second,
		ThinkMax: 6 * time.Second,
		Tasks: []Task{
			{Name: "sustained_browsing", Weight: 3, Run: func(ctx context.Context, e *Env) {
				browseProducts(ctx, e)
				if e.Chance(0.4) {
					searchProducts(ctx, e)
				}
			}},
			{Name: "periodic_activity", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !e.State.Registered() {
					if register(ctx, e) {
						for i, n := 0, e.between(2, 4); i < n && ctx.Err() == nil; i++ {
							browseProducts(ctx, e)
						}
					}
					return
				}
				browseProducts(ctx, e)
				if e.Chance(0.15) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "long_term_behavior", Weight: 1, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				if e.State.HasOrders() && e.Chance(0.3) {
					_ = e.Client.GetUserOrders(ctx, e.State)
				}
				browseProducts(ctx, e)
				if e.Chance(0.2) {
					_ = e.Client.CreateCart(ctx, e.State)
				}
			}},
		},
	}
}

// sessionBasedProfile recycles its session after a drawn action budget.
func sessionBasedProfile() Profile {
	return Profile{
		Name:       "session-based",
		ThinkMin:   time.Second,
		ThinkMax:   4 * time.Second,
		RecycleMin: 10,
		RecycleMax: 30,
		Tasks: []Task{
			{Name: "session_activity", Weight: 4, Run: func(ctx context.Context, e *Env) {
				register(ctx, e)
				randomAction(ctx, e)
			}},
		},
	}
}

// loyalProfile browses deliberately and repurchases often.
func loyalProfile() Profile {
	return Profile{
		Name:     "loyal",
		ThinkMin: 3 * time.Second,
		ThinkMax: 8 * time.Second,
		Tasks: []Task{
			{Name: "loyal_browsing", Weight: 3, Run: func(ctx context.Context, e *Env) {
				for i, n := 0, e.between(2, 5); i < n && ctx.Err() == nil; i++ {
					browseProducts(ctx, e)
					e.pause(ctx, time.Second, 3*time.Second)
				}
			}},
			{Name: "repeat_purchases", Weight: 2, Run: func(ctx context.Context, e *Env) {
				if !register(ctx, e) {
					return
				}
				if e.Chance(0.4) {
					purchase(ctx, e, 0, 0)
				}
			}},
			{Name: "order_history", Weight: 1, Run: checkOrders},
		},
	}
}

// maintenanceProfile performs low-frequency service health probes.
func maintenanceProfile() Profile {
	return Profile{
		Name:     "maintenance",
		ThinkMin: 10 * time.Second,
		ThinkMax: 30 * time.Second,
		Tasks: []Task{
			{Name: "health_checks", Weight: 1, Run: func(ctx context.Context, e *Env) {
				for _, svc := range []string{"user-service", "product-service", "order-service"} {
					if ctx.Err() != nil {
						return
					}
					_ = e.Client.Health(ctx, svc)
				}
			}},
		},
	}
}
