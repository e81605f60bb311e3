package agent

// Admin pages the assistant is embedded in. The page name reaches the system
// prompt so the model favors the tools that match what the operator sees.
const (
	PageBusDashboard = "busDashboard"
	PageManageRoute  = "manageRoute"
)
