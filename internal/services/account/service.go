package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"sealchat/internal/domain"
	"sealchat/internal/token"
)

var (
	// ErrInvalidEmail rejects a malformed email address at registration.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword rejects a password failing the strength rules; the
	// wrapped message names the failed rule.
	ErrWeakPassword = errors.New("weak password")
	// ErrInvalidKeyEncoding rejects public keys that are not valid base64.
	ErrInvalidKeyEncoding = errors.New("invalid public key encoding")
	// ErrInvalidCredentials is returned for a bad username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount rejects logins for deactivated accounts.
	ErrInactiveAccount = errors.New("account is inactive")
	// ErrNoOTP means verification was attempted without a pending code.
	ErrNoOTP = errors.New("no pending verification code")
	// ErrOTPExpired means the pending code is past its validity window.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrOTPInvalid means the submitted code does not match.
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrInviteNotFound means no account owns the submitted invite code.
	ErrInviteNotFound = errors.New("no user found with this invite code")
	// ErrSelfConnect rejects connecting an account to itself.
	ErrSelfConnect = errors.New("cannot connect to yourself")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const otpDigits = 6

// Service implements registration, two-step login and the contact graph.
// All credential checks happen here; the relay core receives only the
// already-authenticated identity.
type Service struct {
	accounts domain.AccountStore
	mailer   domain.Mailer
	tokens   *token.Issuer
	log      zerolog.Logger
	otpTTL   time.Duration

	// mailCtx bounds background mail sends to the process lifetime.
	mailCtx context.Context
	wg      sync.WaitGroup

	now    func() time.Time
	newOTP func() (string, error)
}

// New constructs the account service. ctx bounds background email delivery.
func New(ctx context.Context, accounts domain.AccountStore, mailer domain.Mailer, tokens *token.Issuer, otpTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		accounts: accounts,
		mailer:   mailer,
		tokens:   tokens,
		log:      log.With().Str("component", "account").Logger(),
		otpTTL:   otpTTL,
		mailCtx:  ctx,
		now:      func() time.Time { return time.Now().UTC() },
		newOTP:   randomOTP,
	}
}

// RegisterInput carries the signup form. Public keys arrive base64-encoded
// from the client and are stored hex-encoded.
type RegisterInput struct {
	Username           string
	Email              string
	Password           string
	KyberPublicKey     string
	DilithiumPublicKey string
}

// Register creates the account, generates its invite code and sends the
// welcome mail in the background.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return domain.Account{}, fmt.Errorf("%w: username, password and email are required", ErrInvalidCredentials)
	}
	if !emailPattern.MatchString(in.Email) {
		return domain.Account{}, ErrInvalidEmail
	}
	if err := validatePassword(in.Password); err != nil {
		return domain.Account{}, err
	}
	kyber, err := base64.StdEncoding.DecodeString(in.KyberPublicKey)
	if err != nil {
		return domain.Account{}, ErrInvalidKeyEncoding
	}
	dilithium, err := base64.StdEncoding.DecodeString(in.DilithiumPublicKey)
	if err != nil {
		return domain.Account{}, ErrInvalidKeyEncoding
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	acct := domain.Account{
		ID:                 uuid.NewString(),
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hash,
		KyberPublicKey:     hex.EncodeToString(kyber),
		DilithiumPublicKey: hex.EncodeToString(dilithium),
		InviteCode:         uuid.NewString()[:8],
		CreatedAt:          now,
		UpdatedAt:          now,
		IsActive:           true,
	}
	if err := s.accounts.CreateAccount(acct); err != nil {
		return domain.Account{}, err
	}

	s.sendAsync(acct.Email,
		"Welcome - Account Created Successfully",
		welcomeBody(acct.Username, acct.InviteCode))

	s.log.Info().Str("user_id", acct.ID).Str("username", acct.Username).Msg("account registered")
	return acct, nil
}

// Login checks the password and, on success, issues a one-time code for the
// second login step. No token is minted until the code is verified.
func (s *Service) Login(ctx context.Context, username, password string) error {
	acct, ok, err := s.accounts.AccountByUsername(username)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return s.SendOTP(ctx, username)
}

// SendOTP stores a fresh one-time code on the account and mails it.
func (s *Service) SendOTP(ctx context.Context, username string) error {
	acct, ok, err := s.accounts.AccountByUsername(username)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccountNotFound
	}
	if !acct.IsActive {
		return ErrInactiveAccount
	}

	otp, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	acct.LoginOTP = otp
	acct.LoginOTPExpiry = s.now().Add(s.otpTTL)
	acct.UpdatedAt = s.now()
	if err := s.accounts.UpdateAccount(acct); err != nil {
		return err
	}

	s.sendAsync(acct.Email,
		"Login Verification - Your OTP Code",
		otpBody(acct.Username, otp, s.otpTTL))
	return nil
}

// VerifyOTP consumes a pending code and returns a signed session token plus
// the account it belongs to.
func (s *Service) VerifyOTP(ctx context.Context, username, otp string) (string, domain.Account, error) {
	acct, ok, err := s.accounts.AccountByUsername(username)
	if err != nil {
		return "", domain.Account{}, err
	}
	if !ok {
		return "", domain.Account{}, domain.ErrAccountNotFound
	}
	if acct.LoginOTP == "" || acct.LoginOTPExpiry.IsZero() {
		return "", domain.Account{}, ErrNoOTP
	}
	if s.now().After(acct.LoginOTPExpiry) {
		s.clearOTP(acct)
		return "", domain.Account{}, ErrOTPExpired
	}
	if acct.LoginOTP != otp {
		return "", domain.Account{}, ErrOTPInvalid
	}
	s.clearOTP(acct)

	signed, err := s.tokens.Issue(acct.ID)
	if err != nil {
		return "", domain.Account{}, err
	}
	s.log.Info().Str("user_id", acct.ID).Msg("login verified")
	return signed, acct, nil
}

func (s *Service) clearOTP(acct domain.Account) {
	acct.LoginOTP = ""
	acct.LoginOTPExpiry = time.Time{}
	acct.UpdatedAt = s.now()
	if err := s.accounts.UpdateAccount(acct); err != nil {
		s.log.Error().Err(err).Str("user_id", acct.ID).Msg("clearing otp failed")
	}
}

// Get returns the account stored under id.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, bool, error) {
	return s.accounts.AccountByID(id)
}

// Connect resolves an invite code and records the contact edge on both
// accounts. Returns the connected account.
func (s *Service) Connect(ctx context.Context, userID, inviteCode string) (domain.Account, error) {
	target, ok, err := s.accounts.AccountByInviteCode(inviteCode)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok {
		return domain.Account{}, ErrInviteNotFound
	}
	if target.ID == userID {
		return domain.Account{}, ErrSelfConnect
	}
	me, ok, err := s.accounts.AccountByID(userID)
	if err != nil {
		return domain.Account{}, err
	}
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	if !me.HasContact(target.ID) {
		me.Contacts = append(me.Contacts, target.ID)
		me.UpdatedAt = s.now()
		if err := s.accounts.UpdateAccount(me); err != nil {
			return domain.Account{}, err
		}
	}
	if !target.HasContact(me.ID) {
		target.Contacts = append(target.Contacts, me.ID)
		target.UpdatedAt = s.now()
		if err := s.accounts.UpdateAccount(target); err != nil {
			return domain.Account{}, err
		}
	}
	return target, nil
}

// Contact is one entry of the contact list.
type Contact struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// Connections lists the account's contacts. Dangling contact IDs are
// skipped rather than failing the whole listing.
func (s *Service) Connections(ctx context.Context, userID string) ([]Contact, error) {
	me, ok, err := s.accounts.AccountByID(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	contacts := make([]Contact, 0, len(me.Contacts))
	for _, id := range me.Contacts {
		acct, ok, err := s.accounts.AccountByID(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warn().Str("user_id", id).Msg("dangling contact entry")
			continue
		}
		contacts = append(contacts, Contact{Username: acct.Username, UserID: acct.ID})
	}
	return contacts, nil
}

// PublicKeys returns the account's registered public keys, base64-encoded
// for transport.
func (s *Service) PublicKeys(ctx context.Context, userID string) (kyber, dilithium string, err error) {
	acct, ok, err := s.accounts.AccountByID(userID)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", domain.ErrAccountNotFound
	}
	kyberRaw, err := hex.DecodeString(acct.KyberPublicKey)
	if err != nil {
		return "", "", fmt.Errorf("stored kyber key for %s: %w", userID, err)
	}
	dilithiumRaw, err := hex.DecodeString(acct.DilithiumPublicKey)
	if err != nil {
		return "", "", fmt.Errorf("stored dilithium key for %s: %w", userID, err)
	}
	return base64.StdEncoding.EncodeToString(kyberRaw), base64.StdEncoding.EncodeToString(dilithiumRaw), nil
}

// Wait blocks until background mail sends finish. Shutdown helper.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) sendAsync(to, subject, body string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.mailer.Send(s.mailCtx, to, subject, body); err != nil {
			s.log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("sending mail failed")
		}
	}()
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", ErrWeakPassword)
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: must include at least one uppercase letter", ErrWeakPassword)
	case !lower:
		return fmt.Errorf("%w: must include at least one lowercase letter", ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: must include at least one digit", ErrWeakPassword)
	}
	return nil
}

func randomOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

func welcomeBody(username, inviteCode string) string {
	return fmt.Sprintf(`Hi %s,

Thank you for registering. Your account has been created with
end-to-end encrypted messaging enabled.

Your invite code: %s

Share this code with friends so they can add you as a contact.
Your account is active and ready to use.
`, username, inviteCode)
}

func otpBody(username, otp string, ttl time.Duration) string {
	return fmt.Sprintf(`Hello %s,

We received a login attempt for your account. Use this code to
complete the login:

    %s

The code is valid for %d minutes. If you did not attempt to log in,
ignore this mail and consider changing your password.
`, username, otp, int(ttl.Minutes()))
}
