package fear

// archetype is one generic buyer fear and its product-specific phrasings.
type archetype struct {
	Key string
	// Triggers are whole-word phrases matched against the product text.
	Triggers []string
	// CoreConcern completes "How do I know ...?".
	CoreConcern string
	Templates   []string
}

var archetypes = []archetype{
	{
		Key:         "job_security",
		Triggers:    []string{"automation", "automate", "automates", "automated", "ai-powered", "replace", "replaces", "self-service", "autonomous", "robot", "robotic", "headcount"},
		CoreConcern: "{product} won't make a {role} like me redundant",
		Templates: []string{
			"If {product} does what I do, where does that leave a {role} like me?",
			"{boss_title} will look at {product} and start asking why they need my team.",
			"I've seen tools like this come in right before layoffs.",
		},
	},
	{
		Key:         "competence_threat",
		Triggers:    []string{"training", "coaching", "skills", "performance", "feedback", "analytics", "assessment", "scoring", "expert"},
		CoreConcern: "{product} won't make it look like I haven't been doing my job well",
		Templates: []string{
			"If {product} shows gaps in my team, {boss_title} will ask why I didn't catch them.",
			"I've been doing this for years. I'm not sure I need {technology} telling me how.",
			"What if the numbers make me look bad in front of {boss_title}?",
		},
	},
	{
		Key:         "change_resistance",
		Triggers:    []string{"migration", "migrate", "transformation", "overhaul", "implementation", "rollout", "workflow", "workflows", "switch", "modernize"},
		CoreConcern: "switching to {product} won't disrupt everything that already works",
		Templates: []string{
			"We just finished settling into our current process. Another change now is a lot.",
			"Every new system means months of disruption before anything gets better.",
			"My people are tired of being told the next tool will fix everything.",
		},
	},
	{
		Key:         "trust_deficit",
		Triggers:    []string{"startup", "beta", "unproven", "guarantee", "guaranteed", "cloud", "data", "vendor", "new"},
		CoreConcern: "your company will still be around and keep our data safe",
		Templates: []string{
			"We got burned by a vendor that overpromised last year.",
			"Who else like us is actually using {product} today?",
			"I need to know what happens to our data if this doesn't work out.",
		},
	},
	{
		Key:         "ai_fear",
		Triggers:    []string{"ai", "ai-powered", "ai-based", "artificial intelligence", "machine learning", "algorithm", "algorithms", "chatbot", "gpt", "llm", "neural"},
		CoreConcern: "{technology} won't make mistakes I'll be blamed for",
		Templates: []string{
			"I don't really understand how {technology} makes its decisions.",
			"What happens when {technology} gets something wrong with a customer?",
			"{boss_title} keeps hearing horror stories about {technology} going off the rails.",
		},
	},
	{
		Key:         "safety_liability",
		Triggers:    []string{"safety", "compliance", "compliant", "medical", "patient", "patients", "regulated", "regulatory", "liability", "security", "hipaa", "clinical", "audit"},
		CoreConcern: "{product} won't put us out of compliance",
		Templates: []string{
			"If something goes wrong, I'm the one who signed off on it.",
			"Our auditors will have questions about {product} that I can't answer yet.",
			"One compliance incident would cost us more than {product} could ever save.",
		},
	},
	{
		Key:         "employee_resistance",
		Triggers:    []string{"team", "teams", "staff", "employees", "employee", "adoption", "workforce", "onboarding", "reps"},
		CoreConcern: "my team will actually use {product}",
		Templates: []string{
			"My team won't use it if it feels like one more thing on their plate.",
			"The last tool we bought ended up as shelfware because nobody adopted it.",
			"I'll be the one dealing with the complaints if my people hate it.",
		},
	},
	{
		Key:         "reputation_risk",
		Triggers:    []string{"customer-facing", "brand", "public", "reviews", "social media", "marketing", "customers", "clients"},
		CoreConcern: "{product} won't embarrass us in front of our customers",
		Templates: []string{
			"If {product} annoys our customers, that's on me.",
			"Our reputation took years to build. I can't risk it on an experiment.",
			"{boss_title} will hear about it the moment a customer complains.",
		},
	},
	{
		Key:         "social_judgment",
		Triggers:    []string{"peers", "board", "image", "luxury", "premium", "status", "exclusive"},
		CoreConcern: "I won't look foolish for championing {product}",
		Templates: []string{
			"If I push for this and it flops, my credibility goes with it.",
			"What will my peers think if we're the only ones doing it this way?",
			"I don't want to be the person who brought in the expensive toy.",
		},
	},
	{
		Key:         "complexity_overwhelm",
		Triggers:    []string{"integration", "integrations", "integrate", "enterprise", "configurable", "customizable", "suite", "api", "complex", "modules"},
		CoreConcern: "we have the time and people to actually set {product} up",
		Templates: []string{
			"This sounds like it needs an IT project we don't have the bandwidth for.",
			"Every integration looks simple in the demo and takes six months in real life.",
			"I'm worried we'll only ever use ten percent of it.",
		},
	},
	{
		Key:         "financial_risk",
		Triggers:    []string{"subscription", "pricing", "investment", "cost", "costs", "roi", "license", "licenses", "financing", "expensive", "budget"},
		CoreConcern: "{product} will pay for itself before {boss_title} starts asking questions",
		Templates: []string{
			"I have to justify every dollar to {boss_title} this year.",
			"What if we sign a long contract and it doesn't deliver?",
			"The price is one thing. The hidden costs are what worry me.",
		},
	},
}
