package models

// TokenPair 应用后端签发的访问/刷新令牌，内容对本服务不透明
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the backend's envelope for signin, signup and
// session-exchange calls.
type AuthResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *User    `json:"user,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// ActionResult is what auth actions hand back to their caller. Expected
// failures land here, never in an error return.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type OnboardingStatus struct {
	Completed bool `json:"completed"`
}

// ExternalSession 外部身份提供方的短时会话，只消费一次用于换取 TokenPair
type ExternalSession struct {
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken,omitempty"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
