package cli

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// Success prints a positive notification.
func (a *App) Success(msg string) {
	fmt.Fprintln(a.out, "[ok] "+msg)
}

// Failure prints an error notification.
func (a *App) Failure(msg string) {
	fmt.Fprintln(a.out, "[error] "+msg)
}

// Navigate records the new page and tells the user what to do next.
func (a *App) Navigate(nav services.Navigation) {
	a.mu.Lock()
	a.page = nav.Path
	a.mu.Unlock()

	switch nav.Path {
	case services.RouteDashboard:
		fmt.Fprintln(a.out, "Type 'dashboard' to see your account.")
	case services.RouteLogin:
		if nav.RegistrationSuccess {
			fmt.Fprintln(a.out, "Registration complete. Verify your email, then type 'login'.")
		} else {
			fmt.Fprintln(a.out, "Type 'login' to sign in.")
		}
	}
}
