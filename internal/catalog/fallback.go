package catalog

// fallbackOpportunities is the bundled dataset used when every remote
// retrieval tier comes back empty or the catalog is unreachable.
var fallbackOpportunities = []Opportunity{
	{
		ID:           "1",
		Title:        "Food Pantry Assistant",
		Organization: "Helping Hands",
		Date:         "2025-02-12",
		Location:     "Boca Raton, FL",
		Category:     "Community",
		Description:  "Assist with sorting donations and distributing food to local families.",
	},
	{
		ID:           "2",
		Title:        "Beach Cleanup Crew",
		Organization: "OceanCare",
		Date:         "2025-03-05",
		Location:     "Delray Beach, FL",
		Category:     "Environment",
		Description:  "Join a Saturday morning cleanup to help restore our coastline.",
	},
	{
		ID:           "3",
		Title:        "STEM Tutor (K-8)",
		Organization: "BrightFutures",
		Date:         "2025-02-25",
		Location:     "Fort Lauderdale, FL",
		Category:     "Education",
		Description:  "Support after-school tutoring in math and science for K-8 students.",
	},
	{
		ID:           "4",
		Title:        "Community Food Drive",
		Organization: "Boca Community Outreach",
		Date:         "2025-11-20",
		Location:     "Boca Raton, FL",
		Category:     "Community",
		Description:  "Help sort, pack, and distribute food to local families in need. Great for first-time volunteers and groups.",
	},
	{
		ID:           "5",
		Title:        "Beach Cleanup Day",
		Organization: "Coastal Care Alliance",
		Date:         "2025-11-23",
		Location:     "Deerfield Beach, FL",
		Category:     "Environment",
		Description:  "Join volunteers to remove litter from the shoreline and help protect local wildlife and marine ecosystems.",
	},
	{
		ID:           "6",
		Title:        "After-School Tutoring",
		Organization: "Bright Futures Youth Center",
		Date:         "2025-12-01",
		Location:     "Fort Lauderdale, FL",
		Category:     "Education",
		Description:  "Provide homework help and mentorship to middle school students in math, reading, and science.",
	},
	{
		ID:           "7",
		Title:        "Holiday Toy Sorting",
		Organization: "Hope for Kids Foundation",
		Date:         "2025-12-05",
		Location:     "Boca Raton, FL",
		Category:     "Community",
		Description:  "Sort and organize donated toys for families ahead of the holiday distribution event.",
	},
}

// Fallback returns a copy of the bundled fallback catalog.
func Fallback() []Opportunity {
	out := make([]Opportunity, len(fallbackOpportunities))
	copy(out, fallbackOpportunities)
	return out
}
