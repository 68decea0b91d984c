package models

// Preferences 用户偏好设置
type Preferences struct {
	Language            string   `json:"language,omitempty"`
	Currency            string   `json:"currency,omitempty"`
	FamilySize          int      `json:"familySize,omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	PreferredCategories []string `json:"preferredCategories,omitempty"`
}

type User struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	PhoneNumber    string       `json:"phoneNumber,omitempty"`
	CountryCode    string       `json:"countryCode,omitempty"`
	ProfilePicture string       `json:"profilePicture,omitempty"`
	EmailVerified  bool         `json:"emailVerified"`
	PhoneVerified  bool         `json:"phoneVerified"`
	Role           string       `json:"role,omitempty"`
	Preferences    *Preferences `json:"preferences,omitempty"`
}
