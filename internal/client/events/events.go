// Package events holds the contracts the identity core uses to talk to the
// presentation layer: user-facing notifications and navigation requests.
package events

// Severity of a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityDestructive
)

func (s Severity) String() string {
	if s == SeverityDestructive {
		return "destructive"
	}
	return "info"
}

// Notification is emitted once for every action outcome.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

// Notifier renders notifications.
type Notifier interface {
	Notify(Notification)
}

// Route is a named navigation target.
type Route string

const (
	RouteLogin            Route = "login"
	RouteAppHome          Route = "application-home"
	RouteVerificationStep Route = "verification-step"
)

// Navigator performs redirects.
type Navigator interface {
	Navigate(Route)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }
