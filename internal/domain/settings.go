package domain

// GlobalOptions toggles client-facing features. Stored as one JSON property.
type GlobalOptions struct {
	EnableExpiry   bool `json:"enableExpiry"`
	EnableQR       bool `json:"enableQR"`
	EnableVerifier bool `json:"enableVerifier"`
	EnablePhotos   bool `json:"enablePhotos"`
}

// DefaultGlobalOptions returns the first-boot option set: everything on.
func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		EnableExpiry:   true,
		EnableQR:       true,
		EnableVerifier: true,
		EnablePhotos:   true,
	}
}

// MailTemplates holds the alert subjects and bodies per severity. Bodies may
// carry the placeholders {nom}, {categorie}, {date} and {echeance}; subjects
// only substitute {nom}.
type MailTemplates struct {
	OrangeSubject string `json:"orangeSub"`
	OrangeBody    string `json:"orangeBody"`
	RedSubject    string `json:"redSub"`
	RedBody       string `json:"redBody"`
}

// DefaultMailTemplates returns the built-in alert wording.
func DefaultMailTemplates() MailTemplates {
	return MailTemplates{
		OrangeSubject: "ALERTE ORANGE",
		OrangeBody:    "Matériel bientot périmé.",
		RedSubject:    "ALERTE ROUGE",
		RedBody:       "Matériel périmé.",
	}
}
