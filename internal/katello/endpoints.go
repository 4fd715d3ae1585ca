package katello

// Endpoint names one upstream path. Name identifies the payload to the
// mapper that consumes it; for subscription searches it doubles as the
// status label value.
type Endpoint struct {
	Name string
	Path string
}

// Upstream paths, relative to the server base URL.
const (
	DashboardPath = "/api/dashboard"
	TasksPath     = "/foreman_tasks/api/tasks/summary"
	PingPath      = "/katello/api/ping"

	hostSearchPath = "/api/v2/hosts?search=+subscription_status+%3D+"
)

// Subscription statuses queried through the host search API.
var SubscriptionStatuses = []string{"partial", "valid", "invalid", "unknown"}

// DashboardEndpoints feed the host inventory dashboard mapper.
func DashboardEndpoints() []Endpoint {
	return []Endpoint{{Name: "dashboard", Path: DashboardPath}}
}

// TaskEndpoints feed the task summary mapper.
func TaskEndpoints() []Endpoint {
	return []Endpoint{{Name: "tasks", Path: TasksPath}}
}

// SubscriptionEndpoints returns one host search per subscription status.
func SubscriptionEndpoints() []Endpoint {
	eps := make([]Endpoint, 0, len(SubscriptionStatuses))
	for _, status := range SubscriptionStatuses {
		eps = append(eps, Endpoint{Name: status, Path: hostSearchPath + status})
	}
	return eps
}

// ServiceEndpoints feed the service health mapper.
func ServiceEndpoints() []Endpoint {
	return []Endpoint{{Name: "services", Path: PingPath}}
}
