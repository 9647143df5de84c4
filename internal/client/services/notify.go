package services

import "sync"

// Routes the manager navigates to.
const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// Notifier is the single channel user-facing outcomes are reported on.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Navigation is a requested page change.
type Navigation struct {
	Path    string
	Replace bool

	// RegistrationSuccess is set when navigating to the login page right
	// after sign-up.
	RegistrationSuccess bool
}

// Navigator performs page changes requested by the manager.
type Navigator interface {
	Navigate(nav Navigation)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}

type nopNavigator struct{}

func (nopNavigator) Navigate(Navigation) {}

// Notice is one recorded notification.
type Notice struct {
	OK      bool
	Message string
}

// Recorder collects notifications and navigations in memory. The browser
// front end drains it into flash messages and redirects.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	navs    []Navigation
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{OK: true, Message: msg})
}

func (r *Recorder) Failure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{OK: false, Message: msg})
}

func (r *Recorder) Navigate(nav Navigation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, nav)
}

// Notices returns the recorded notifications in order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// LastNavigation returns the most recent navigation request.
func (r *Recorder) LastNavigation() (Navigation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.navs) == 0 {
		return Navigation{}, false
	}
	return r.navs[len(r.navs)-1], true
}
