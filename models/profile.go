package models

type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

type Preferences struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
	Theme    string `json:"theme"`
}

type Profile struct {
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	Location      string               `json:"location"`
	Avatar        *string              `json:"avatar"`
	Bio           string               `json:"bio"`
	Notifications NotificationSettings `json:"notifications"`
	Preferences   Preferences          `json:"preferences"`
}

func DefaultProfile() Profile {
	return Profile{
		Notifications: NotificationSettings{Email: true, Push: true, SMS: false},
		Preferences:   Preferences{Language: "English", Currency: "USD", Theme: "dark"},
	}
}

type Review struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`
	User    string `json:"user"`
	Avatar  string `json:"avatar"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Likes   int    `json:"likes"`
	Date    string `json:"date"`
}
