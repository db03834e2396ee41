package domain

// UserPreferences holds the user's app settings.
type UserPreferences struct {
	Notifications bool   `json:"notifications"`
	DarkMode      bool   `json:"darkMode"`
	Language      string `json:"language"`
}

// DefaultPreferences are used when nothing has been saved yet.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Notifications: true,
		DarkMode:      false,
		Language:      "en",
	}
}

// Favorite is a route or destination the user starred.
type Favorite struct {
	ID    ID            `json:"id"`
	Name  string        `json:"name"`
	Type  TransportType `json:"type,omitempty"`
	Price int           `json:"price,omitempty"`
}
