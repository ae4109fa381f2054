package domain

import "time"

// Application status values. An inactive application rejects all access
// regardless of any permission grants.
const (
	AppStatusActive   = "active"
	AppStatusInactive = "inactive"
)

// App is a registered downstream application. BaseURL is the redirect-target
// prefix used to match launch requests to an application.
type App struct {
	ID        string
	Name      string
	BaseURL   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *App) Active() bool {
	return a.Status == AppStatusActive
}
