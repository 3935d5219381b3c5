package domain

// Profile is the one-time registration submitted after the first login.
type Profile struct {
	FullName   string `json:"fullName"`
	Nickname   string `json:"nickname"`
	BirthDay   int    `json:"birthDay"`
	BirthMonth int    `json:"birthMonth"`
	BirthYear  int    `json:"birthYear"`
	PixKey     string `json:"pixKey"`
	Whatsapp   string `json:"whatsapp"`
	Email      string `json:"email"`
}
