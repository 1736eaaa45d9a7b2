package domain

import "time"

// Identity is the stable identifier of an authenticated account. It is the
// sole addressing unit of the relay: registry lookups, pairing edges and
// envelope routing all key on it.
type Identity string

func (i Identity) String() string { return string(i) }

// Envelope is the relay wire payload. Field casing is load-bearing: deployed
// clients parse these exact JSON names, including camel-cased
// "encryptedMessage".
type Envelope struct {
	Type             string   `json:"type"`
	From             Identity `json:"from"`
	To               Identity `json:"to"`
	Ciphertext       string   `json:"ciphertext"`
	EncryptedMessage string   `json:"encryptedMessage"`
	IV               string   `json:"iv"`
	Signature        string   `json:"signature,omitempty"`
}

// MissingFields reports which required envelope fields are absent, in the
// order clients expect them listed in the status frame.
func (e Envelope) MissingFields() []string {
	var missing []string
	if e.Ciphertext == "" {
		missing = append(missing, "ciphertext")
	}
	if e.EncryptedMessage == "" {
		missing = append(missing, "encryptedMessage")
	}
	if e.IV == "" {
		missing = append(missing, "iv")
	}
	if e.From == "" {
		missing = append(missing, "from")
	}
	if e.To == "" {
		missing = append(missing, "to")
	}
	return missing
}

// MessageRecord is the persisted form of a delivered envelope. It is a
// separate external surface from Envelope: the stored ciphertext body is
// snake-cased "encrypted_message", and unifying the two casings would be an
// observable behaviour change for history consumers.
type MessageRecord struct {
	ID               string    `json:"_id,omitempty"`
	SenderID         Identity  `json:"sender_id"`
	ReceiverID       Identity  `json:"receiver_id"`
	MessageType      string    `json:"message_type"`
	Ciphertext       string    `json:"ciphertext"`
	EncryptedMessage string    `json:"encrypted_message"`
	IV               string    `json:"iv"`
	Signature        string    `json:"signature,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Account is a registered user profile. Key material is client-generated;
// the server only stores the public halves for distribution.
type Account struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	PasswordHash       []byte    `json:"password_hash"`
	KyberPublicKey     string    `json:"kyber_public_key"`     // hex
	DilithiumPublicKey string    `json:"dilithium_public_key"` // hex
	InviteCode         string    `json:"invite_code"`
	Contacts           []string  `json:"connected_users,omitempty"`
	LoginOTP           string    `json:"login_otp,omitempty"`
	LoginOTPExpiry     time.Time `json:"login_otp_expiry,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	IsActive           bool      `json:"is_active"`
}

// HasContact reports whether the given account ID is in the contact list.
func (a Account) HasContact(id string) bool {
	for _, c := range a.Contacts {
		if c == id {
			return true
		}
	}
	return false
}
